package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the canonical user record. Every storage or wire representation
// is converted into it once, at the edge.
type User struct {
	ID              string          `json:"id"`
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	Balance         decimal.Decimal `json:"balance"`
	BalanceCurrency Currency        `json:"balanceCurrency"`
	IsAdmin         bool            `json:"isAdmin"`
	IsContractor    bool            `json:"isContractor"`
	// ReferralCode is the contractor's own code.
	ReferralCode *string `json:"referralCode,omitempty"`
	// ReferredBy is the code the user signed up with.
	ReferredBy *string `json:"referredBy,omitempty"`
	// ContractorCommissionRate is a percentage: 0.85 means 0.85%.
	ContractorCommissionRate decimal.Decimal `json:"contractorCommissionRate"`
	CreatedAt                time.Time       `json:"createdAt"`
	UpdatedAt                time.Time       `json:"updatedAt"`
}

func (u *User) HasReferralAttribution() bool {
	return u.ReferredBy != nil && *u.ReferredBy != ""
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID  string
	IsAdmin bool
}
