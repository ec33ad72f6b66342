package interactor

import (
	"context"
	"fmt"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	apperrors "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/shopspring/decimal"
)

type CurrencyConverter struct {
	rates RateTable
}

func NewCurrencyConverter(rates RateTable) *CurrencyConverter {
	return &CurrencyConverter{rates: rates}
}

// Rate returns the FROM -> TO rate. Equal currencies are 1 without a lookup.
func (c *CurrencyConverter) Rate(ctx context.Context, from, to models.Currency) (decimal.Decimal, error) {
	pair := models.CurrencyPair{From: from, To: to}
	if !pair.Supported() {
		return decimal.Decimal{}, apperrors.NewUnsupportedCurrencyPairError(from.String(), to.String())
	}
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	rate, err := c.rates.Get(ctx, pair)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("rate %s: %w", pair, err)
	}
	return rate, nil
}

// Convert returns amount in the target currency, unrounded.
// Equal currencies return amount unchanged.
func (c *CurrencyConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to models.Currency) (decimal.Decimal, error) {
	if from == to && from.Supported() {
		return amount, nil
	}

	rate, err := c.Rate(ctx, from, to)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(rate), nil
}
