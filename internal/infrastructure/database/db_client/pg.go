package db_client

import (
	"context"
	"fmt"

	decimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/config"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/postgresql"
)

// PGClient opens the pool every repository and the transactor share.
type PGClient struct {
	cfg config.PostgreSQL
}

func NewPGClient(cfg config.PostgreSQL) *PGClient {
	return &PGClient{cfg: cfg}
}

// Connect dials the exchange database, retrying up to MaxConnAttempts, and
// teaches every pooled connection the NUMERIC to decimal mapping.
func (c *PGClient) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	pgxConfig, err := pgxpool.ParseConfig(c.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}

	// balances and amounts scan straight into decimal.Decimal
	pgxConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		decimal.Register(conn.TypeMap())
		return nil
	}
	if c.cfg.MaxConns > 0 {
		pgxConfig.MaxConns = int32(c.cfg.MaxConns)
	}

	db, err := postgresql.NewClient(ctx, pgxConfig, c.cfg.MaxConnAttempts)
	if err != nil {
		return nil, fmt.Errorf("postgresql.NewClient: %w", err)
	}

	return db, nil
}
