package interactor

import (
	"context"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	apperrors "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
	"github.com/rs/zerolog"
)

type ExchangeRateInteractor struct {
	rates  RateTable
	logger *zerolog.Logger
}

func NewExchangeRateInteractor(rates RateTable) *ExchangeRateInteractor {
	l := log.GetLogger()
	return &ExchangeRateInteractor{rates: rates, logger: &l}
}

func (i *ExchangeRateInteractor) Snapshot() models.RateSnapshot {
	return i.rates.Snapshot()
}

// Execute refreshes the rate table. The table keeps serving its previous rates on failure.
func (i *ExchangeRateInteractor) Execute(ctx context.Context) error {
	if err := i.rates.Refresh(ctx); err != nil {
		i.logger.Warn().Err(err).Msg(apperrors.ErrFailedRefreshRates)
		return err
	}

	snapshot := i.rates.Snapshot()
	i.logger.Info().
		Str("source", string(snapshot.Source)).
		Time("updated_at", snapshot.UpdatedAt).
		Msg("Exchange rates refreshed")
	return nil
}
