package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories"
	apperrors "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/database/db_client"
)

type UserRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewUserRepositoryImpl(db *pgxpool.Pool) repositories.UserRepository {
	return &UserRepositoryImpl{
		db: db,
	}
}

const selectUser = `
SELECT id, username, email, balance, balance_currency, is_admin, is_contractor,
       referral_code, referred_by, contractor_commission_rate, created_at, updated_at
FROM users`

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+" WHERE id = $1", id)
}

// GetByIDForUpdate locks the user row for the rest of the transaction in ctx.
func (r *UserRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+" WHERE id = $1 FOR UPDATE", id)
}

// GetByReferralCode matches codes case-insensitively.
func (r *UserRepositoryImpl) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	user, err := r.getOne(ctx, selectUser+" WHERE UPPER(referral_code) = UPPER($1)", code)
	var notFound *apperrors.UserNotFoundError
	if errors.As(err, &notFound) {
		return nil, nil
	}
	return user, err
}

func (r *UserRepositoryImpl) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal, currency models.Currency) error {
	tx, ok := db_client.TxFromContext(ctx)
	if !ok {
		return db_client.ErrNoActiveTransaction
	}

	tag, err := tx.Exec(
		ctx,
		"UPDATE users SET balance = $1, balance_currency = $2, updated_at = NOW() WHERE id = $3",
		balance,
		string(currency),
		id,
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewUserNotFoundError(id)
	}
	return nil
}

func (r *UserRepositoryImpl) getOne(ctx context.Context, query string, key string) (*models.User, error) {
	user := &models.User{}
	var currency string
	err := db_client.Conn(ctx, r.db).QueryRow(ctx, query, key).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Balance,
		&currency,
		&user.IsAdmin,
		&user.IsContractor,
		&user.ReferralCode,
		&user.ReferredBy,
		&user.ContractorCommissionRate,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUserNotFoundError(key)
		}
		return nil, err
	}
	user.BalanceCurrency = models.Currency(currency)

	return user, nil
}
