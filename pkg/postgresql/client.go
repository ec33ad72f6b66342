package postgresql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/util/repeat"
)

const ClientTimeout = 5 * time.Second

// Client is the query surface shared by *pgxpool.Pool and pgx.Tx.
type Client interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewClient opens a pool and pings it, retrying with backoff until maxConnAttempts is spent.
func NewClient(ctx context.Context, cfg *pgxpool.Config, maxConnAttempts int) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := repeat.Do(ctx, repeat.Options{
		Attempts: maxConnAttempts,
		Delay:    time.Second,
		Backoff:  2,
	}, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, ClientTimeout)
		defer cancel()

		p, err := pgxpool.NewWithConfig(attemptCtx, cfg)
		if err != nil {
			return err
		}

		if err = p.Ping(attemptCtx); err != nil {
			p.Close()
			return err
		}

		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pool, nil
}
