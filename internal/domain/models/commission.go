package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionRates are read only for the lifetime of the process.
type CommissionRates struct {
	// Platform is a fraction of the gross amount: 0.10 means 10%.
	Platform decimal.Decimal
	// Contractor is the default contractor percentage: 0.85 means 0.85%.
	Contractor decimal.Decimal
	UpdatedAt  time.Time
}

// DepositCalculation is the full breakdown of a gross deposit.
type DepositCalculation struct {
	OriginalAmount        decimal.Decimal  `json:"originalAmount"`
	CommissionAmount      decimal.Decimal  `json:"commissionAmount"`
	AmountAfterCommission decimal.Decimal  `json:"amountAfterCommission"`
	ExchangeRate          decimal.Decimal  `json:"exchangeRate"`
	ConvertedAmount       decimal.Decimal  `json:"convertedAmount"`
	FromCurrency          Currency         `json:"fromCurrency"`
	ToCurrency            Currency         `json:"toCurrency"`
	ContractorCommission  *decimal.Decimal `json:"contractorCommission,omitempty"`
	ContractorID          *string          `json:"contractorId,omitempty"`
	ReferralCode          *string          `json:"referralCode,omitempty"`
}
