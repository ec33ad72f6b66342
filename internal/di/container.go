package di

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/config"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/api/handlers"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/api/middlewares"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/database/db_client"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/database/repositories"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/rates"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/telegram"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/infrastructure/websocket"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/interactor"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

type Container struct {
	Config  *config.Config
	JWTAuth *jwtauth.JWTAuth

	UserInteractor         *interactor.UserInteractor
	ExchangeRateInteractor *interactor.ExchangeRateInteractor
	OutboxDispatcher       *interactor.OutboxDispatcher
	Hub                    *websocket.Hub

	AdminHandler       *handlers.AdminHandler
	TransactionHandler *handlers.TransactionHandler
	BalanceHandler     *handlers.BalanceHandler
	SettingsHandler    *handlers.SettingsHandler
	TelegramHandler    *handlers.TelegramHandler
	WebSocketHandler   *handlers.WebSocketHandler
}

// NewContainer creates a new Container instance.
func NewContainer(cfg *config.Config, db *pgxpool.Pool) *Container {
	logger := log.GetLogger()

	transactor := db_client.NewTransactor(db, cfg.PostgreSQL.TxRetries)
	userRepository := repositories.NewUserRepositoryImpl(db)
	depositRepository := repositories.NewDepositRepositoryImpl(db)
	orderRepository := repositories.NewOrderRepositoryImpl(db)
	outboxRepository := repositories.NewOutboxRepositoryImpl(db)
	groupRepository := repositories.NewTelegramGroupRepositoryImpl(db)

	rateClient := &http.Client{Timeout: cfg.Rates.RequestTimeout}
	provider := rates.NewProvider(rateClient, rates.ProviderSettings{
		URL:               cfg.Rates.ProviderURL,
		Timeout:           cfg.Rates.RequestTimeout,
		RequestsPerMinute: cfg.Rates.RequestsPerMinute,
		BreakerFailures:   uint32(cfg.Notify.BreakerFailures),
		BreakerTimeout:    cfg.Notify.BreakerTimeout,
	})
	rateCache := rates.NewCache(provider, cfg.Rates.CacheTTL, cfg.Rates.RequestTimeout)
	converter := interactor.NewCurrencyConverter(rateCache)

	calculator := interactor.NewCommissionCalculator(userRepository, converter, interactor.CommissionSettings{
		Rates: models.CommissionRates{
			Platform:   decimal.NewFromFloat(cfg.Commission.PlatformRate),
			Contractor: decimal.NewFromFloat(cfg.Commission.ContractorRate),
			UpdatedAt:  rateCache.Snapshot().UpdatedAt,
		},
		FallbackReferralCode: cfg.Commission.FallbackReferralCode,
		FallbackContractorID: cfg.Commission.FallbackContractorID,
	})
	ledger := interactor.NewBalanceLedger(userRepository, outboxRepository, converter, cfg.Ledger.AllowNegativeBalance)

	dispatcher := interactor.NewOutboxDispatcher(outboxRepository, interactor.OutboxSettings{
		BatchSize:   cfg.Process.OutboxBatchSize,
		Lease:       cfg.Process.OutboxLease,
		MaxAttempts: cfg.Process.OutboxMaxAttempts,
		Timeout:     cfg.Notify.Timeout,
	})
	hub := websocket.NewHub(cfg.Notify.WebSocketBacklog)
	dispatcher.Route("websocket", hub,
		models.EventBalanceUpdated,
		models.EventSepaStatusChanged,
		models.EventUsdtStatusChanged,
		models.EventUsdcStatusChanged,
	)
	notifyClient := telegram.NewNotifyClient(&http.Client{Timeout: cfg.Notify.Timeout}, telegram.NotifySettings{
		URL:             cfg.Notify.TelegramURL,
		Token:           cfg.Telegram.InternalToken,
		RequestsPerSec:  cfg.Notify.RequestsPerSec,
		BreakerFailures: uint32(cfg.Notify.BreakerFailures),
		BreakerTimeout:  cfg.Notify.BreakerTimeout,
	})
	dispatcher.Route("telegram", notifyClient, models.EventTelegramTransaction)

	settlementInteractor := interactor.NewSettlementInteractor(
		transactor, depositRepository, orderRepository, userRepository, outboxRepository, ledger, dispatcher,
	)
	depositInteractor := interactor.NewDepositInteractor(depositRepository, userRepository, calculator, interactor.DepositLimits{
		Min: decimal.NewFromFloat(cfg.Commission.MinDepositAmount),
		Max: decimal.NewFromFloat(cfg.Commission.MaxDepositAmount),
	})
	orderInteractor := interactor.NewOrderInteractor(orderRepository, userRepository)
	userInteractor := interactor.NewUserInteractor(userRepository)
	exchangeRateInteractor := interactor.NewExchangeRateInteractor(rateCache)

	var sender interactor.MessageSender
	if cfg.Telegram.BotToken != "" {
		bot, err := telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.SendPerSecond)
		if err != nil {
			logger.Error().Err(err).Msg("Telegram bot disabled")
		} else {
			sender = bot
		}
	}
	if cfg.Telegram.InternalToken == "" {
		logger.Warn().Msg("TELEGRAM_INTERNAL_TOKEN is not set, telegram notifications will be rejected")
	}
	telegramInteractor := interactor.NewTelegramNotificationInteractor(userRepository, groupRepository, sender, cfg.Telegram.AdminChatID)

	return &Container{
		Config:  cfg,
		JWTAuth: middlewares.NewJWTAuth(cfg.Auth.JWTSecret),

		UserInteractor:         userInteractor,
		ExchangeRateInteractor: exchangeRateInteractor,
		OutboxDispatcher:       dispatcher,
		Hub:                    hub,

		AdminHandler:       handlers.NewAdminHandler(settlementInteractor, depositInteractor, orderInteractor),
		TransactionHandler: handlers.NewTransactionHandler(depositInteractor, orderInteractor),
		BalanceHandler:     handlers.NewBalanceHandler(userInteractor),
		SettingsHandler:    handlers.NewSettingsHandler(exchangeRateInteractor, calculator),
		TelegramHandler:    handlers.NewTelegramHandler(telegramInteractor),
		WebSocketHandler:   handlers.NewWebSocketHandler(hub),
	}
}
