package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

// InternalTokenHeader authenticates calls to the internal notify endpoint.
const InternalTokenHeader = "X-Internal-Token"

var ErrNotifyRejected = errors.New("telegram notify endpoint rejected the event")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type NotifySettings struct {
	URL             string
	Token           string
	RequestsPerSec  float64
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// NotifyClient forwards telegramTransaction outbox events to the internal notify endpoint.
type NotifyClient struct {
	url        string
	token      string
	httpClient HTTPClient
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
}

func NewNotifyClient(client HTTPClient, settings NotifySettings) *NotifyClient {
	l := log.GetLogger()
	if settings.BreakerFailures == 0 {
		settings.BreakerFailures = 5
	}
	limit := rate.Inf
	if settings.RequestsPerSec > 0 {
		limit = rate.Limit(settings.RequestsPerSec)
	}

	return &NotifyClient{
		url:        settings.URL,
		token:      settings.Token,
		httpClient: client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "telegram-notify",
			Timeout: settings.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= settings.BreakerFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
			},
		}),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Deliver posts the event payload, which is a models.TransactionNotification.
func (c *NotifyClient) Deliver(ctx context.Context, event *models.OutboxEvent) error {
	if event.Type != models.EventTelegramTransaction {
		return fmt.Errorf("unexpected event type %s", event.Type)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, event.Payload)
	})
	return err
}

func (c *NotifyClient) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(InternalTokenHeader, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNoContent:
		return nil
	default:
		return fmt.Errorf("%w: status %d", ErrNotifyRejected, resp.StatusCode)
	}
}
