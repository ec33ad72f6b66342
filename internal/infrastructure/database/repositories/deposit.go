package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories"
	apperrors "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/database/db_client"
)

type DepositRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewDepositRepositoryImpl creates new instance of DepositRepositoryImpl.
func NewDepositRepositoryImpl(db *pgxpool.Pool) repositories.DepositRepository {
	return &DepositRepositoryImpl{db: db}
}

const insertDeposit = `
INSERT INTO sepa_deposits (id, user_id, amount, currency, status, commission_fee,
                           contractor_id, contractor_commission, referral_code, reference, created_at)
VALUES ($1, $2, $3::NUMERIC(18,2), $4, $5, $6::NUMERIC(18,2), $7, $8, $9, $10, $11)`

func (r *DepositRepositoryImpl) Create(ctx context.Context, d *models.SepaDeposit) error {
	_, err := db_client.Conn(ctx, r.db).Exec(
		ctx,
		insertDeposit,
		d.ID,
		d.UserID,
		d.Amount,
		string(d.Currency),
		string(d.Status),
		d.CommissionFee,
		d.ContractorID,
		d.ContractorCommission,
		d.ReferralCode,
		d.Reference,
		d.CreatedAt,
	)
	if err != nil {
		if db_client.IsUniqueViolation(err) {
			return apperrors.NewTransactionDuplicateError()
		}
		return err
	}
	return nil
}

const selectDeposit = `
SELECT id, user_id, amount, currency, status, commission_fee, contractor_id,
       contractor_commission, referral_code, reference, created_at, completed_at,
       settled_amount, settled_currency
FROM sepa_deposits
WHERE id = $1`

func (r *DepositRepositoryImpl) GetByID(ctx context.Context, id string) (*models.SepaDeposit, error) {
	return r.getOne(ctx, selectDeposit, id)
}

func (r *DepositRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (*models.SepaDeposit, error) {
	return r.getOne(ctx, selectDeposit+" FOR UPDATE", id)
}

func (r *DepositRepositoryImpl) UpdateStatus(ctx context.Context, id string, status models.Status, completedAt *time.Time, settled *models.Settlement) error {
	amount, currency := settlementArgs(settled)
	tag, err := db_client.Conn(ctx, r.db).Exec(
		ctx,
		`UPDATE sepa_deposits
		 SET status = $1, completed_at = $2, settled_amount = $3::NUMERIC(18,2), settled_currency = $4
		 WHERE id = $5`,
		string(status),
		completedAt,
		amount,
		currency,
		id,
	)
	if err != nil {
		return fmt.Errorf("update deposit status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("deposit", id)
	}
	return nil
}

func (r *DepositRepositoryImpl) Delete(ctx context.Context, id string) error {
	tag, err := db_client.Conn(ctx, r.db).Exec(ctx, "DELETE FROM sepa_deposits WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete deposit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("deposit", id)
	}
	return nil
}

func (r *DepositRepositoryImpl) getOne(ctx context.Context, query, id string) (*models.SepaDeposit, error) {
	d := &models.SepaDeposit{}
	var currency, status string
	var settledAmount *decimal.Decimal
	var settledCurrency *string
	err := db_client.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.UserID,
		&d.Amount,
		&currency,
		&status,
		&d.CommissionFee,
		&d.ContractorID,
		&d.ContractorCommission,
		&d.ReferralCode,
		&d.Reference,
		&d.CreatedAt,
		&d.CompletedAt,
		&settledAmount,
		&settledCurrency,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("deposit", id)
		}
		return nil, err
	}
	d.Currency = models.Currency(currency)
	d.Status = models.Status(status)
	d.Settled = scanSettlement(settledAmount, settledCurrency)

	return d, nil
}

func settlementArgs(s *models.Settlement) (*decimal.Decimal, *string) {
	if s == nil {
		return nil, nil
	}
	amount, currency := s.Amount, string(s.Currency)
	return &amount, &currency
}

func scanSettlement(amount *decimal.Decimal, currency *string) *models.Settlement {
	if amount == nil || currency == nil {
		return nil
	}
	return &models.Settlement{Amount: *amount, Currency: models.Currency(*currency)}
}
