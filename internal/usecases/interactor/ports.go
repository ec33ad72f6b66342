package interactor

import (
	"context"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=ports.go -destination=mocks/ports.go -package=mocks

// RateTable is a cached FROM -> TO rate source.
type RateTable interface {
	Get(ctx context.Context, pair models.CurrencyPair) (decimal.Decimal, error)
	Refresh(ctx context.Context) error
	Snapshot() models.RateSnapshot
}

// EventSink delivers one outbox event. Implementations must honor ctx deadlines.
type EventSink interface {
	Deliver(ctx context.Context, event *models.OutboxEvent) error
}

type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}
