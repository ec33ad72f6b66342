package app

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

type RatesRefresher interface {
	Execute(ctx context.Context) error
}

// RatesRefreshJob refreshes exchange rates on a cron schedule.
type RatesRefreshJob struct {
	cron      *cron.Cron
	refresher RatesRefresher
	schedule  string
	logger    *zerolog.Logger
}

func NewRatesRefreshJob(refresher RatesRefresher, schedule string) *RatesRefreshJob {
	l := log.GetLogger()
	return &RatesRefreshJob{
		cron:      cron.New(),
		refresher: refresher,
		schedule:  schedule,
		logger:    &l,
	}
}

// Start runs one refresh right away and then follows the schedule.
func (j *RatesRefreshJob) Start(ctx context.Context) error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.run(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", j.schedule, err)
	}

	go j.run(ctx)
	j.cron.Start()
	j.logger.Info().Str("schedule", j.schedule).Msg("Exchange rate refresh scheduled")
	return nil
}

// Stop waits for a running refresh to finish.
func (j *RatesRefreshJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info().Msg("Exchange rate refresh stopped")
}

// run failures are logged by the refresher.
func (j *RatesRefreshJob) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	_ = j.refresher.Execute(ctx)
}
