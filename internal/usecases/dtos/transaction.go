package dtos

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
)

// StatusUpdateDTO is the body of the admin status PATCH endpoints.
type StatusUpdateDTO struct {
	Status string  `json:"status"`
	TxHash *string `json:"txHash,omitempty"`
}

// CreateDepositDTO accepts the amount as a JSON number or string.
type CreateDepositDTO struct {
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	ReferralCode *string         `json:"referralCode,omitempty"`
}

type CreateOrderDTO struct {
	AmountUSD     decimal.Decimal `json:"amountUsd"`
	WalletAddress *string         `json:"walletAddress,omitempty"`
}

type StatusUpdateResponse struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	PreviousStatus string `json:"previousStatus"`
	Status         string `json:"status"`
	Changed        bool   `json:"changed"`
}

type BalanceResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// ExchangeRatesResponse encodes as {"EUR": {"USD": 1.08, ...}, ..., "source": ..., "updatedAt": ...}.
type ExchangeRatesResponse struct {
	Rates     map[string]map[string]float64
	Source    string
	UpdatedAt time.Time
}

func (r ExchangeRatesResponse) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Rates)+2)
	for from, to := range r.Rates {
		out[from] = to
	}
	out["source"] = r.Source
	out["updatedAt"] = r.UpdatedAt
	return json.Marshal(out)
}

type CommissionSettingsResponse struct {
	Rate                 float64   `json:"rate"`
	Percentage           float64   `json:"percentage"`
	ContractorRate       float64   `json:"contractorRate"`
	ContractorPercentage float64   `json:"contractorPercentage"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

type NotifyResponse struct {
	Delivered bool   `json:"delivered"`
	ChatID    int64  `json:"chatId,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type CreateDepositResponse struct {
	Deposit     *models.SepaDeposit        `json:"deposit"`
	Calculation *models.DepositCalculation `json:"calculation"`
}
