package repositories

import (
	"context"
	"time"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
)

//go:generate mockgen -source=transaction.go -destination=mocks/transaction.go -package=mocks

const (
	SerializationError   = "40001"
	DeadlockDetected     = "40P01"
	UniqueViolationError = "23505"
)

// Transactor runs fn inside one storage transaction carried by the context
// passed to fn. Repositories called with that context join the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type DepositRepository interface {
	Create(ctx context.Context, deposit *models.SepaDeposit) error
	GetByID(ctx context.Context, id string) (*models.SepaDeposit, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*models.SepaDeposit, error)
	// UpdateStatus stores settled as the balance effect to undo on reversal. nil clears it.
	UpdateStatus(ctx context.Context, id string, status models.Status, completedAt *time.Time, settled *models.Settlement) error
	Delete(ctx context.Context, id string) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, asset models.TransactionType, id string) (*models.Order, error)
	GetByIDForUpdate(ctx context.Context, asset models.TransactionType, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, asset models.TransactionType, id string, status models.Status, completedAt *time.Time, settled *models.Settlement, txHash *string) error
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, events ...*models.OutboxEvent) error
	// Claim leases up to limit undelivered events so concurrent consumers skip them.
	Claim(ctx context.Context, limit int, lease time.Duration, maxAttempts int) ([]*models.OutboxEvent, error)
	MarkDispatched(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}
