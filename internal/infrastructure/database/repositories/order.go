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

type OrderRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewOrderRepositoryImpl(db *pgxpool.Pool) repositories.OrderRepository {
	return &OrderRepositoryImpl{db: db}
}

func (r *OrderRepositoryImpl) Create(ctx context.Context, o *models.Order) error {
	_, err := db_client.Conn(ctx, r.db).Exec(
		ctx,
		`INSERT INTO orders (id, user_id, asset, amount_usd, status, reference, wallet_address, created_at)
		 VALUES ($1, $2, $3, $4::NUMERIC(18,2), $5, $6, $7, $8)`,
		o.ID,
		o.UserID,
		string(o.Asset),
		o.AmountUSD,
		string(o.Status),
		o.Reference,
		o.WalletAddress,
		o.CreatedAt,
	)
	if err != nil {
		if db_client.IsUniqueViolation(err) {
			return apperrors.NewTransactionDuplicateError()
		}
		return err
	}
	return nil
}

const selectOrder = `
SELECT id, user_id, asset, amount_usd, status, reference, wallet_address, tx_hash, created_at, completed_at,
       settled_amount, settled_currency
FROM orders
WHERE asset = $1 AND id = $2`

func (r *OrderRepositoryImpl) GetByID(ctx context.Context, asset models.TransactionType, id string) (*models.Order, error) {
	return r.getOne(ctx, selectOrder, asset, id)
}

func (r *OrderRepositoryImpl) GetByIDForUpdate(ctx context.Context, asset models.TransactionType, id string) (*models.Order, error) {
	return r.getOne(ctx, selectOrder+" FOR UPDATE", asset, id)
}

// UpdateStatus keeps the stored tx hash when txHash is nil. A hash already used by
// another order is a TransactionDuplicateError.
func (r *OrderRepositoryImpl) UpdateStatus(ctx context.Context, asset models.TransactionType, id string, status models.Status, completedAt *time.Time, settled *models.Settlement, txHash *string) error {
	amount, currency := settlementArgs(settled)
	tag, err := db_client.Conn(ctx, r.db).Exec(
		ctx,
		`UPDATE orders
		 SET status = $1, completed_at = $2, tx_hash = COALESCE($3, tx_hash),
		     settled_amount = $6::NUMERIC(18,2), settled_currency = $7
		 WHERE asset = $4 AND id = $5`,
		string(status),
		completedAt,
		txHash,
		string(asset),
		id,
		amount,
		currency,
	)
	if err != nil {
		if db_client.IsUniqueViolation(err) {
			return apperrors.NewTransactionDuplicateError()
		}
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError(string(asset)+" order", id)
	}
	return nil
}

func (r *OrderRepositoryImpl) getOne(ctx context.Context, query string, asset models.TransactionType, id string) (*models.Order, error) {
	o := &models.Order{}
	var assetName, status string
	var settledAmount *decimal.Decimal
	var settledCurrency *string
	err := db_client.Conn(ctx, r.db).QueryRow(ctx, query, string(asset), id).Scan(
		&o.ID,
		&o.UserID,
		&assetName,
		&o.AmountUSD,
		&status,
		&o.Reference,
		&o.WalletAddress,
		&o.TxHash,
		&o.CreatedAt,
		&o.CompletedAt,
		&settledAmount,
		&settledCurrency,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError(string(asset)+" order", id)
		}
		return nil, err
	}
	o.Asset = models.TransactionType(assetName)
	o.Status = models.Status(status)
	o.Settled = scanSettlement(settledAmount, settledCurrency)

	return o, nil
}
