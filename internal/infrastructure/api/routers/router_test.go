package routers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/config"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/di"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/telegram"
)

// newTestRouter builds the full route tree without a database. Only routes
// that never reach storage are exercised.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_INTERNAL_TOKEN", "internal")
	t.Setenv("JWT_SECRET", "router-secret")

	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	return NewRouter(di.NewContainer(cfg, nil))
}

func TestRouter(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		header   map[string]string
		wantCode int
		contains string
	}{
		{name: "health", method: http.MethodGet, path: "/health", wantCode: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantCode: http.StatusOK, contains: "go_goroutines"},
		{name: "exchange rates are public", method: http.MethodGet, path: "/exchange-rates", wantCode: http.StatusOK, contains: `"source":"fallback"`},
		{name: "commission settings are public", method: http.MethodGet, path: "/settings/commission", wantCode: http.StatusOK, contains: `"percentage":10`},
		{name: "balance needs a token", method: http.MethodGet, path: "/balance", wantCode: http.StatusUnauthorized},
		{name: "admin needs a token", method: http.MethodPatch, path: "/admin/usdt/0b6f2f1c-8f4e-4d43-9db5-0f0e8f3b1a11", body: `{"status":"completed"}`, wantCode: http.StatusUnauthorized},
		{name: "websocket needs a token", method: http.MethodGet, path: "/ws", wantCode: http.StatusUnauthorized},
		{name: "internal notify needs the internal token", method: http.MethodPost, path: "/telegram/internal/notify/transaction", body: `{}`, wantCode: http.StatusForbidden},
		{
			name:     "internal notify without bot is accepted",
			method:   http.MethodPost,
			path:     "/telegram/internal/notify/transaction",
			body:     `{"userId":"u1","type":"usdt","amount":10,"currency":"USD","status":"completed","reference":"EVO-USDT-1"}`,
			header:   map[string]string{telegram.InternalTokenHeader: "internal"},
			wantCode: http.StatusAccepted,
			contains: `"delivered":false`,
		},
		{name: "unknown route", method: http.MethodGet, path: "/nope", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
		})
	}
}

func TestNewRouter_CanBeBuiltTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		newTestRouter(t)
		newTestRouter(t)
	})
}
