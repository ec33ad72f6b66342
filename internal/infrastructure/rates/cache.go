package rates

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/metrics"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

//go:generate mockgen -source=cache.go -destination=mocks/cache.go -package=mocks

const sourceLastGood = "last_good"

// asyncRetryInterval spaces background refreshes triggered by reads.
const asyncRetryInterval = time.Minute

type Fetcher interface {
	Fetch(ctx context.Context) (models.RateTable, error)
}

// Cache serves rates from an immutable snapshot. It starts on the fallback table
// and only replaces the snapshot with a complete provider table.
type Cache struct {
	mu         sync.RWMutex
	snapshot   models.RateSnapshot
	fetcher    Fetcher
	ttl        time.Duration
	timeout    time.Duration
	refreshing atomic.Bool
	lastAsync  atomic.Int64
	now        func() time.Time
	logger     *zerolog.Logger
}

func NewCache(fetcher Fetcher, ttl, timeout time.Duration) *Cache {
	l := log.GetLogger()
	c := &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		timeout: timeout,
		now:     time.Now,
		logger:  &l,
	}
	c.snapshot = models.RateSnapshot{
		Rates:     models.NewFallbackRateTable(),
		Source:    models.RateSourceFallback,
		UpdatedAt: c.now().UTC(),
	}
	return c
}

// Get never blocks on the provider. A stale snapshot is served while a
// background refresh runs.
func (c *Cache) Get(_ context.Context, pair models.CurrencyPair) (decimal.Decimal, error) {
	snapshot := c.Snapshot()
	if c.stale(snapshot) {
		c.refreshAsync()
	}

	r, ok := snapshot.Rate(pair)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no rate for %s", pair)
	}
	return r, nil
}

func (c *Cache) Snapshot() models.RateSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Refresh fetches a new table. On failure the current snapshot stays in place,
// which is the last good provider table or the fallback table.
func (c *Cache) Refresh(ctx context.Context) error {
	table, err := c.fetcher.Fetch(ctx)
	if err != nil {
		current := c.Snapshot()
		source := string(models.RateSourceFallback)
		if current.Source == models.RateSourceProvider {
			source = sourceLastGood
		}
		metrics.RateRefreshes.WithLabelValues(source).Inc()
		c.logger.Warn().Err(err).Str("serving", source).Msg("Exchange rate refresh failed")
		return fmt.Errorf("refresh rates: %w", err)
	}

	c.mu.Lock()
	c.snapshot = models.RateSnapshot{
		Rates:     table,
		Source:    models.RateSourceProvider,
		UpdatedAt: c.now().UTC(),
	}
	c.mu.Unlock()

	metrics.RateRefreshes.WithLabelValues(string(models.RateSourceProvider)).Inc()
	return nil
}

func (c *Cache) stale(s models.RateSnapshot) bool {
	if c.ttl <= 0 {
		return false
	}
	return s.Source != models.RateSourceProvider || c.now().Sub(s.UpdatedAt) > c.ttl
}

func (c *Cache) refreshAsync() {
	now := c.now()
	if now.Sub(time.Unix(0, c.lastAsync.Load())) < asyncRetryInterval {
		return
	}
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	c.lastAsync.Store(now.UnixNano())
	go func() {
		defer c.refreshing.Store(false)
		ctx := context.Background()
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		_ = c.Refresh(ctx)
	}()
}
