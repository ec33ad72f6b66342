package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeSepa TransactionType = "sepa"
	TransactionTypeUsdt TransactionType = "usdt"
	TransactionTypeUsdc TransactionType = "usdc"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccessful Status = "successful"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ValidStatuses lists the statuses each transaction type may be moved to.
var ValidStatuses = map[TransactionType]map[Status]struct{}{
	TransactionTypeSepa: {
		StatusPending:    {},
		StatusProcessing: {},
		StatusSuccessful: {},
		StatusFailed:     {},
	},
	TransactionTypeUsdt: {
		StatusProcessing: {},
		StatusSuccessful: {},
		StatusCompleted:  {},
		StatusFailed:     {},
	},
	TransactionTypeUsdc: {
		StatusProcessing: {},
		StatusSuccessful: {},
		StatusCompleted:  {},
		StatusFailed:     {},
	},
}

// ParseOrderAsset maps "usdt"/"USDC" style input to an order type.
func ParseOrderAsset(s string) (TransactionType, bool) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.IsOrder()
}

func (t TransactionType) IsOrder() bool {
	return t == TransactionTypeUsdt || t == TransactionTypeUsdc
}

// ValidStatus reports whether s belongs to the status set of t.
func (t TransactionType) ValidStatus(s Status) bool {
	_, ok := ValidStatuses[t][s]
	return ok
}

// InitialStatus is the unsettled state every new transaction of t starts in.
func (t TransactionType) InitialStatus() Status {
	if t == TransactionTypeSepa {
		return StatusPending
	}
	return StatusProcessing
}

func (t TransactionType) StatusChangedEvent() EventType {
	switch t {
	case TransactionTypeUsdt:
		return EventUsdtStatusChanged
	case TransactionTypeUsdc:
		return EventUsdcStatusChanged
	default:
		return EventSepaStatusChanged
	}
}

// Settled reports whether s is a terminal success state. Balance effects are
// applied when a transaction enters this set and reversed when it leaves it.
func (s Status) Settled() bool {
	return s == StatusSuccessful || s == StatusCompleted
}

// Settlement is the amount a settled transaction moved, in the balance currency
// it was applied to. Reversals undo exactly this amount.
type Settlement struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// SepaDeposit is a fiat deposit. Amount is stored net of CommissionFee.
type SepaDeposit struct {
	ID                   string           `json:"id"`
	UserID               string           `json:"userId"`
	Amount               decimal.Decimal  `json:"amount"`
	Currency             Currency         `json:"currency"`
	Status               Status           `json:"status"`
	CommissionFee        decimal.Decimal  `json:"commissionFee"`
	ContractorID         *string          `json:"contractorId,omitempty"`
	ContractorCommission *decimal.Decimal `json:"contractorCommission,omitempty"`
	ReferralCode         *string          `json:"referralCode,omitempty"`
	Reference            string           `json:"reference"`
	CreatedAt            time.Time        `json:"createdAt"`
	CompletedAt          *time.Time       `json:"completedAt,omitempty"`
	Settled              *Settlement      `json:"settled,omitempty"`
}

// InitialAmount is the gross amount the user sent.
func (d *SepaDeposit) InitialAmount() decimal.Decimal {
	return d.Amount.Add(d.CommissionFee)
}

// HasContractorCommission reports whether settlement also credits a contractor.
func (d *SepaDeposit) HasContractorCommission() bool {
	return d.ContractorID != nil && *d.ContractorID != "" &&
		d.ContractorCommission != nil && d.ContractorCommission.IsPositive()
}

// Order is a USDT or USDC purchase paid from the fiat balance.
type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Asset         TransactionType `json:"asset"`
	AmountUSD     decimal.Decimal `json:"amountUsd"`
	Status        Status          `json:"status"`
	Reference     string          `json:"reference"`
	WalletAddress *string         `json:"walletAddress,omitempty"`
	TxHash        *string         `json:"txHash,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
	Settled       *Settlement     `json:"settled,omitempty"`
}
