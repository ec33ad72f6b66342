package interactor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/repositories"
	apperrors "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/metrics"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
	"github.com/rs/zerolog"
)

type OutboxSettings struct {
	BatchSize   int
	Lease       time.Duration
	MaxAttempts int
	// Timeout bounds a single delivery to a single sink.
	Timeout time.Duration
}

type namedSink struct {
	name string
	sink EventSink
}

// OutboxDispatcher delivers committed outbox events to their sinks.
// Delivery failures are recorded on the event and never returned.
type OutboxDispatcher struct {
	outboxRepository repositories.OutboxRepository
	routes           map[models.EventType][]namedSink
	settings         OutboxSettings
	kick             chan struct{}
	logger           *zerolog.Logger
}

func NewOutboxDispatcher(outboxRepository repositories.OutboxRepository, settings OutboxSettings) *OutboxDispatcher {
	l := log.GetLogger()
	return &OutboxDispatcher{
		outboxRepository: outboxRepository,
		routes:           make(map[models.EventType][]namedSink),
		settings:         settings,
		kick:             make(chan struct{}, 1),
		logger:           &l,
	}
}

// Route sends events of the given types to sink. It must be called before dispatching starts.
func (d *OutboxDispatcher) Route(name string, sink EventSink, types ...models.EventType) {
	for _, t := range types {
		d.routes[t] = append(d.routes[t], namedSink{name: name, sink: sink})
	}
}

// Wake asks the consumer for an immediate sweep. It never blocks.
func (d *OutboxDispatcher) Wake() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

func (d *OutboxDispatcher) Kicks() <-chan struct{} {
	return d.kick
}

// DispatchPending claims one batch and delivers it. It returns the number of events
// delivered to every sink; only storage errors are returned.
func (d *OutboxDispatcher) DispatchPending(ctx context.Context) (int, error) {
	events, err := d.outboxRepository.Claim(ctx, d.settings.BatchSize, d.settings.Lease, d.settings.MaxAttempts)
	if err != nil {
		return 0, fmt.Errorf("claim outbox events: %w", err)
	}

	delivered := 0
	for _, event := range events {
		if d.deliver(ctx, event) {
			delivered++
		}
	}
	return delivered, nil
}

func (d *OutboxDispatcher) deliver(ctx context.Context, event *models.OutboxEvent) bool {
	var failures []string
	for _, route := range d.routes[event.Type] {
		if err := d.deliverTo(ctx, route, event); err != nil {
			dispatchErr := apperrors.NewNotificationDispatchError(route.name, event.ID, err)
			d.logger.Error().Err(dispatchErr).
				Str("event_type", string(event.Type)).
				Int("attempt", event.Attempts+1).
				Msg(apperrors.ErrFailedDispatchOutbox)
			metrics.OutboxDeliveries.WithLabelValues(route.name, metrics.ResultFailed).Inc()
			failures = append(failures, dispatchErr.Error())
			continue
		}
		metrics.OutboxDeliveries.WithLabelValues(route.name, metrics.ResultDelivered).Inc()
	}

	if len(failures) > 0 {
		if err := d.outboxRepository.MarkFailed(ctx, event.ID, strings.Join(failures, "; ")); err != nil {
			d.logger.Error().Err(err).Str("event_id", event.ID).Msg("Failed to record outbox failure")
		}
		return false
	}

	if err := d.outboxRepository.MarkDispatched(ctx, event.ID); err != nil {
		d.logger.Error().Err(err).Str("event_id", event.ID).Msg("Failed to mark outbox event dispatched")
		return false
	}
	return true
}

func (d *OutboxDispatcher) deliverTo(ctx context.Context, route namedSink, event *models.OutboxEvent) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.settings.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()

	return route.sink.Deliver(ctx, event)
}
