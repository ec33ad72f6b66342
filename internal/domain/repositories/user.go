package repositories

import (
	"context"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=user.go -destination=mocks/user.go -package=mocks

type UserRepository interface {
	// GetByID fails with a UserNotFoundError when the user does not exist.
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.User, error)
	// GetByReferralCode returns nil, nil when no user owns the code.
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	// UpdateBalance requires an active transaction in ctx.
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal, currency models.Currency) error
}

type TelegramGroupRepository interface {
	// ChatIDByReferralCode reports false when no group is registered for the code.
	ChatIDByReferralCode(ctx context.Context, code string) (int64, bool, error)
}
