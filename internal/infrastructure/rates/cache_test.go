package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/rates/mocks"
)

func providerTable(t *testing.T) models.RateTable {
	t.Helper()
	table, ok := models.NewRateTableFromUSD(map[models.Currency]decimal.Decimal{
		models.EUR: decimal.RequireFromString("0.9"),
		models.GBP: decimal.RequireFromString("0.8"),
		models.CHF: decimal.RequireFromString("0.95"),
	})
	require.True(t, ok)
	return table
}

var usdEur = models.CurrencyPair{From: models.USD, To: models.EUR}

func TestCache_ServesFallbackBeforeFirstRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := NewCache(mocks.NewMockFetcher(ctrl), 0, time.Second)

	r, err := cache.Get(context.Background(), usdEur)
	require.NoError(t, err)
	assert.True(t, r.Equal(decimal.RequireFromString("0.93")))
	assert.Equal(t, models.RateSourceFallback, cache.Snapshot().Source)
}

func TestCache_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("success replaces snapshot", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fetcher := mocks.NewMockFetcher(ctrl)
		fetcher.EXPECT().Fetch(gomock.Any()).Return(providerTable(t), nil)

		cache := NewCache(fetcher, 0, time.Second)
		require.NoError(t, cache.Refresh(ctx))

		r, err := cache.Get(ctx, usdEur)
		require.NoError(t, err)
		assert.True(t, r.Equal(decimal.RequireFromString("0.9")))
		assert.Equal(t, models.RateSourceProvider, cache.Snapshot().Source)
	})

	t.Run("failure keeps last good", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fetcher := mocks.NewMockFetcher(ctrl)
		gomock.InOrder(
			fetcher.EXPECT().Fetch(gomock.Any()).Return(providerTable(t), nil),
			fetcher.EXPECT().Fetch(gomock.Any()).Return(nil, errors.New("timeout")),
		)

		cache := NewCache(fetcher, 0, time.Second)
		require.NoError(t, cache.Refresh(ctx))
		assert.Error(t, cache.Refresh(ctx))

		r, err := cache.Get(ctx, usdEur)
		require.NoError(t, err)
		assert.True(t, r.Equal(decimal.RequireFromString("0.9")))
		assert.Equal(t, models.RateSourceProvider, cache.Snapshot().Source)
	})

	t.Run("failure without last good keeps fallback", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fetcher := mocks.NewMockFetcher(ctrl)
		fetcher.EXPECT().Fetch(gomock.Any()).Return(nil, ErrProviderUnavailable)

		cache := NewCache(fetcher, 0, time.Second)
		err := cache.Refresh(ctx)
		assert.ErrorIs(t, err, ErrProviderUnavailable)

		r, err := cache.Get(ctx, models.CurrencyPair{From: models.EUR, To: models.USD})
		require.NoError(t, err)
		assert.True(t, r.Equal(decimal.RequireFromString("1.08")))
	})
}

func TestCache_StaleReadTriggersOneBackgroundRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)

	done := make(chan struct{})
	fetcher.EXPECT().Fetch(gomock.Any()).DoAndReturn(func(context.Context) (models.RateTable, error) {
		defer close(done)
		return providerTable(t), nil
	}).Times(1)

	cache := NewCache(fetcher, time.Hour, time.Second)
	for i := 0; i < 5; i++ {
		_, err := cache.Get(context.Background(), usdEur)
		require.NoError(t, err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background refresh did not run")
	}
	assert.Eventually(t, func() bool {
		return cache.Snapshot().Source == models.RateSourceProvider
	}, time.Second, 10*time.Millisecond)
}
