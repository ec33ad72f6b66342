package routers

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	metrics "github.com/slok/go-http-metrics/metrics/prometheus"
	httpmetrics "github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/di"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	http2 "github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/api/http"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/api/middlewares"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/telegram"
)

// httpMetrics registers its collectors once per process.
var httpMetrics = sync.OnceValue(func() httpmetrics.Middleware {
	return httpmetrics.New(httpmetrics.Config{
		Recorder: metrics.NewRecorder(metrics.Config{}),
	})
})

func NewRouter(container *di.Container) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewares.RequestLogger)
	router.Use(middleware.Recoverer)

	mdlw := httpMetrics()
	// Handler ids are fixed per group so transaction ids never become label values.
	measured := func(id string) func(http.Handler) http.Handler {
		return std.HandlerProvider(id, mdlw)
	}
	timeout := middleware.Timeout(container.Config.Server.RequestTimeout)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Group(func(r chi.Router) {
		r.Use(measured("public"), timeout)
		sh := container.SettingsHandler
		r.Get("/exchange-rates", sh.GetExchangeRates)
		r.Get("/settings/commission", sh.GetCommissionSettings)
	})

	router.Route("/telegram/internal", func(r chi.Router) {
		r.Use(measured("telegram"), timeout)
		r.Use(middlewares.InternalToken(telegram.InternalTokenHeader, container.Config.Telegram.InternalToken))
		r.Post("/notify/transaction", container.TelegramHandler.NotifyTransaction)
	})

	router.Group(func(r chi.Router) {
		r.Use(middlewares.Verifier(container.JWTAuth), middlewares.Authenticator)
		r.Use(middlewares.UserValidationMiddleware(container.UserInteractor))

		// Long lived, so no timeout and no response metrics.
		r.Get("/ws", container.WebSocketHandler.Connect)

		r.Group(func(r chi.Router) {
			r.Use(measured("user"), timeout)
			th := container.TransactionHandler
			r.Post("/deposits", th.CreateDeposit)
			r.Get("/deposits/calculate", th.CalculateDeposit)
			r.Post(fmt.Sprintf("/orders/{%s}", http2.AssetParam), th.CreateOrder)
			r.Get("/balance", container.BalanceHandler.GetBalance)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewares.RequireAdmin, measured("admin"), timeout)
			ah := container.AdminHandler
			sepa := fmt.Sprintf("/deposits/sepa-{%s}", http2.IDParam)
			r.Patch(sepa, ah.UpdateSepaDepositStatus)
			r.Get(sepa, ah.GetSepaDeposit)
			r.Delete(sepa, ah.DeleteSepaDeposit)
			r.Patch(fmt.Sprintf("/usdt/{%s}", http2.IDParam), ah.UpdateOrderStatus(models.TransactionTypeUsdt))
			r.Patch(fmt.Sprintf("/usdc/{%s}", http2.IDParam), ah.UpdateOrderStatus(models.TransactionTypeUsdc))
			r.Get(fmt.Sprintf("/orders/{%s}/{%s}", http2.AssetParam, http2.IDParam), ah.GetOrder)
		})
	})

	return router
}
