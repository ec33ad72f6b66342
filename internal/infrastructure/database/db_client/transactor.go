package db_client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/postgresql"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/util/repeat"
)

var ErrNoActiveTransaction = errors.New("no active transaction in context")

type txKey struct{}

// Transactor keeps the open pgx.Tx in the context handed to the callback.
type Transactor struct {
	db      *pgxpool.Pool
	retries int
}

func NewTransactor(db *pgxpool.Pool, retries int) *Transactor {
	return &Transactor{db: db, retries: retries}
}

// WithinTransaction runs fn in a read committed transaction and commits when fn returns nil.
// Serialization failures and deadlocks re-run fn from scratch. Nested calls join the outer transaction.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	logger := log.GetLogger()
	attempt := 0
	return repeat.Do(ctx, repeat.Options{
		Attempts: t.retries,
		Delay:    10 * time.Millisecond,
		Backoff:  2,
		RetryIf:  IsRetryable,
	}, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			logger.Warn().Int("attempt", attempt).Msg("Retrying transaction after conflict")
		}
		return t.run(ctx, fn)
	})
}

func (t *Transactor) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := t.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TxFromContext returns the transaction opened by WithinTransaction, if any.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// Conn returns the active transaction or falls back to the pool.
func Conn(ctx context.Context, db *pgxpool.Pool) postgresql.Client {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return db
}

// IsRetryable reports whether err aborted the transaction on a concurrency
// conflict that a fresh attempt can clear.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.SQLState() {
	case repositories.SerializationError, repositories.DeadlockDetected:
		return true
	}
	return false
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == repositories.UniqueViolationError
}
