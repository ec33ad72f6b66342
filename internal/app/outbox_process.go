package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

type OutboxHandler interface {
	DispatchPending(ctx context.Context) (int, error)
	Kicks() <-chan struct{}
}

// OutboxProcess sweeps the outbox when kicked after a commit and on every tick.
type OutboxProcess struct {
	handler  OutboxHandler
	interval time.Duration
	logger   *zerolog.Logger
}

func NewOutboxProcess(h OutboxHandler, interval time.Duration) *OutboxProcess {
	l := log.GetLogger()
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &OutboxProcess{handler: h, interval: interval, logger: &l}
}

// Run blocks until ctx is done.
func (p *OutboxProcess) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Outbox process stopped")
			return
		case <-ticker.C:
			p.sweep(ctx)
		case <-p.handler.Kicks():
			p.sweep(ctx)
		}
	}
}

// sweep drains full batches so a burst does not wait for the next tick.
func (p *OutboxProcess) sweep(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := p.handler.DispatchPending(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Error().Err(err).Msg(errors.ErrFailedDispatchOutbox)
			}
			return
		}
		if n == 0 {
			return
		}
	}
}
