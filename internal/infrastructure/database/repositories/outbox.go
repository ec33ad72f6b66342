package repositories

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/database/db_client"
)

// maxRetryDelaySeconds caps the backoff between failed deliveries of one event.
const maxRetryDelaySeconds = 300.0

type OutboxRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewOutboxRepositoryImpl(db *pgxpool.Pool) repositories.OutboxRepository {
	return &OutboxRepositoryImpl{db: db}
}

// Enqueue joins the transaction in ctx so events commit or roll back with the change they describe.
func (r *OutboxRepositoryImpl) Enqueue(ctx context.Context, events ...*models.OutboxEvent) error {
	conn := db_client.Conn(ctx, r.db)
	for _, e := range events {
		_, err := conn.Exec(
			ctx,
			"INSERT INTO outbox_events (id, event_type, user_id, payload, created_at) VALUES ($1, $2, $3, $4, $5)",
			e.ID,
			string(e.Type),
			e.UserID,
			e.Payload,
			e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert outbox event %s: %w", e.Type, err)
		}
	}
	return nil
}

const claimOutbox = `
UPDATE outbox_events
SET locked_until = NOW() + make_interval(secs => $2)
WHERE id IN (
  SELECT id
  FROM outbox_events
  WHERE dispatched_at IS NULL
    AND attempts < $3
    AND (locked_until IS NULL OR locked_until < NOW())
  ORDER BY created_at
  LIMIT $1
  FOR UPDATE SKIP LOCKED
)
RETURNING id, event_type, user_id, payload, attempts, created_at`

func (r *OutboxRepositoryImpl) Claim(ctx context.Context, limit int, lease time.Duration, maxAttempts int) ([]*models.OutboxEvent, error) {
	rows, err := db_client.Conn(ctx, r.db).Query(ctx, claimOutbox, limit, lease.Seconds(), maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.OutboxEvent, 0, limit)
	for rows.Next() {
		e := &models.OutboxEvent{}
		var eventType string
		if err = rows.Scan(&e.ID, &eventType, &e.UserID, &e.Payload, &e.Attempts, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = models.EventType(eventType)
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	// RETURNING does not keep the subquery order
	sort.SliceStable(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events, nil
}

func (r *OutboxRepositoryImpl) MarkDispatched(ctx context.Context, id string) error {
	_, err := db_client.Conn(ctx, r.db).Exec(
		ctx,
		"UPDATE outbox_events SET dispatched_at = NOW(), locked_until = NULL, last_error = NULL WHERE id = $1",
		id,
	)
	return err
}

func (r *OutboxRepositoryImpl) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := db_client.Conn(ctx, r.db).Exec(
		ctx,
		`UPDATE outbox_events
		 SET attempts = attempts + 1,
		     last_error = $2,
		     locked_until = NOW() + make_interval(secs => LEAST($3, 2 * POWER(2, attempts)))
		 WHERE id = $1`,
		id,
		reason,
		maxRetryDelaySeconds,
	)
	return err
}
