package main

import (
	"context"
	"sync"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/app"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/config"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/di"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/api/routers"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/database/db_client"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/database/migrations"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

const (
	appName = "exchange-settlement"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	opts := []log.LoggerOption{log.WithLogLevel(cfg.Log.Level)}
	if cfg.Log.Console {
		opts = append(opts, log.WithConsoleLogger())
	}
	if cfg.Log.File != "" {
		opts = append(opts, log.WithFileLogger(cfg.Log.File))
	}
	log.Init(appName, opts...)
	logger := log.GetLogger()
	errors.ExposeInternalDetails(cfg.App.IsDevelopment())

	if cfg.PostgreSQL.Migrate {
		if err := migrations.Up(cfg.PostgreSQL.DSN()); err != nil {
			logger.Fatal().Err(err).Msg(errors.ErrorFailedToMigrateTheDatabase)
		}
	}

	pgClient := db_client.NewPGClient(cfg.PostgreSQL)
	db, err := pgClient.Connect(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg(errors.ErrorFailedToConnectToTheDatabase)
	}
	defer db.Close()

	container := di.NewContainer(cfg, db)

	ratesJob := app.NewRatesRefreshJob(container.ExchangeRateInteractor, cfg.Rates.RefreshSchedule)
	if err = ratesJob.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg(errors.ErrFailedRefreshRates)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	outbox := app.NewOutboxProcess(container.OutboxDispatcher, cfg.Process.OutboxInterval)
	go func() {
		defer wg.Done()
		outbox.Run(ctx)
	}()

	router := routers.NewRouter(container)
	service := app.NewService(cfg)
	service.Run(ctx, router)

	// Stop in reverse order of dependency: the pool closes last via defer.
	cancel()
	ratesJob.Stop()
	wg.Wait()
	container.Hub.Close()
	logger.Info().Msg("Shutdown complete")
}
