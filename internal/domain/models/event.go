package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventBalanceUpdated      EventType = "balanceUpdated"
	EventSepaStatusChanged   EventType = "sepaStatusChanged"
	EventUsdtStatusChanged   EventType = "usdtStatusChanged"
	EventUsdcStatusChanged   EventType = "usdcStatusChanged"
	EventTelegramTransaction EventType = "telegramTransaction"
)

// OutboxEvent is a notification written in the same storage transaction as
// the change it describes and delivered after commit.
type OutboxEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	UserID    string          `json:"userId"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"createdAt"`
}

func NewOutboxEvent(eventType EventType, userID string, payload any) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &OutboxEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type BalanceUpdatedPayload struct {
	UserID    string          `json:"userId"`
	Currency  Currency        `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Previous  decimal.Decimal `json:"previous"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type StatusChangedPayload struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Type           TransactionType `json:"type"`
	Reference      string          `json:"reference"`
	PreviousStatus Status          `json:"previousStatus"`
	Status         Status          `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       Currency        `json:"currency"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// TransactionNotification is the summary forwarded to the Telegram boundary.
type TransactionNotification struct {
	UserID        string           `json:"userId"`
	Type          TransactionType  `json:"type"`
	Amount        decimal.Decimal  `json:"amount"`
	Currency      Currency         `json:"currency"`
	Status        Status           `json:"status"`
	Reference     string           `json:"reference"`
	InitialAmount *decimal.Decimal `json:"initialAmount,omitempty"`
	Commission    *decimal.Decimal `json:"commission,omitempty"`
}
