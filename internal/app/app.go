package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/config"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

// Service owns the exchange API listener and its graceful stop.
type Service struct {
	config *config.Config
	logger *zerolog.Logger
}

// NewService binds the API listener settings from cfg.
func NewService(cfg *config.Config) *Service {
	l := log.GetLogger()
	return &Service{config: cfg, logger: &l}
}

// Run serves router until ctx ends or the process gets SIGINT or SIGTERM, then
// drains in-flight requests within SERVER_SHUTDOWN_TIMEOUT.
func (s *Service) Run(ctx context.Context, router chi.Router) {
	server := &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: s.config.Server.ReadHeaderTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg(errors.ErrorFailedToRunTheServer)
		}
	}()

	s.logger.Info().Str("addr", s.config.Server.Addr()).Msg("Exchange API is listening")
	done := make(chan struct{})
	go s.shutdown(ctx, server, done)
	<-done
}

// shutdown waits for a stop trigger and closes done once open requests finish
// or the drain deadline passes.
func (s *Service) shutdown(ctx context.Context, server *http.Server, done chan struct{}) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("Exchange API stopping: context done")
	case sig := <-quit:
		s.logger.Info().Str("signal", sig.String()).Msg("Exchange API stopping")
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		s.logger.Error().Err(err).Msg(errors.ErrorFailedToShutdownTheServer)
	}

	s.logger.Info().Msg("Exchange API stopped")
	close(done)
}
