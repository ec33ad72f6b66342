package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

var (
	ErrProviderUnavailable = errors.New("exchange rate provider unavailable")
	ErrIncompleteRates     = errors.New("exchange rate provider returned incomplete rates")
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type ProviderSettings struct {
	URL               string
	Timeout           time.Duration
	RequestsPerMinute int
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
}

// latestResponse is the open.er-api.com /v6/latest payload.
type latestResponse struct {
	Result   string                     `json:"result"`
	BaseCode string                     `json:"base_code"`
	Rates    map[string]decimal.Decimal `json:"rates"`
}

// Provider fetches live quotes over HTTP behind a circuit breaker and a request limiter.
type Provider struct {
	url        string
	timeout    time.Duration
	httpClient HTTPClient
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
}

func NewProvider(client HTTPClient, settings ProviderSettings) *Provider {
	l := log.GetLogger()
	if settings.RequestsPerMinute < 1 {
		settings.RequestsPerMinute = 1
	}
	if settings.BreakerFailures == 0 {
		settings.BreakerFailures = 5
	}

	return &Provider{
		url:        settings.URL,
		timeout:    settings.Timeout,
		httpClient: client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "exchange-rates",
			Timeout: settings.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= settings.BreakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
			},
		}),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(settings.RequestsPerMinute)), 1),
	}
}

// Fetch returns a full table for the supported currencies built from the provider's quotes.
func (p *Provider) Fetch(ctx context.Context) (models.RateTable, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	res, err := p.breaker.Execute(func() (interface{}, error) {
		return p.latest(ctx)
	})
	if err != nil {
		return nil, err
	}
	return toTable(res.(*latestResponse))
}

func (p *Provider) latest(ctx context.Context) (*latestResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var body latestResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	if body.Result != "" && body.Result != "success" {
		return nil, fmt.Errorf("%w: result %q", ErrProviderUnavailable, body.Result)
	}
	return &body, nil
}

// toTable rebases the quotes on USD when the provider used another base.
func toTable(body *latestResponse) (models.RateTable, error) {
	quotes := make(map[models.Currency]decimal.Decimal, len(body.Rates))
	for code, r := range body.Rates {
		quotes[models.Currency(strings.ToUpper(code))] = r
	}

	if base := models.Currency(strings.ToUpper(body.BaseCode)); base != "" && base != models.USD {
		usd, ok := quotes[models.USD]
		if !ok || !usd.IsPositive() {
			return nil, ErrIncompleteRates
		}
		quotes[base] = decimal.NewFromInt(1)
		for c, q := range quotes {
			quotes[c] = q.Div(usd)
		}
	}

	table, ok := models.NewRateTableFromUSD(quotes)
	if !ok {
		return nil, ErrIncompleteRates
	}
	return table, nil
}
