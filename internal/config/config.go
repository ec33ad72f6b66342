package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const EnvDevelopment = "development"

var cfg *Config
var once sync.Once

// Config is the configuration for the application
type Config struct {
	App
	Server
	PostgreSQL
	Process
	Rates
	Commission
	Ledger
	Notify
	Telegram
	Auth
	Log
}

type App struct {
	Env string `env:"APP_ENV" envDefault:"production"`
}

// IsDevelopment reports whether internal error details may be exposed to clients.
func (a App) IsDevelopment() bool {
	return a.Env == EnvDevelopment
}

// Server is the configuration for the server
type Server struct {
	Host              string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port              string        `env:"PORT" envDefault:"8080"`
	ReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	RequestTimeout    time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"10s"`
}

// Addr returns the address for the server
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// PostgreSQL is the configuration for the database
type PostgreSQL struct {
	URL             string `env:"DATABASE_DSN" envDefault:""`
	Driver          string `env:"DB_DRIVER" envDefault:"postgres"`
	Host            string `env:"DB_HOST" envDefault:"localhost"`
	Port            string `env:"DB_PORT" envDefault:"5432"`
	Database        string `env:"DB_DATABASE" envDefault:"exchange"`
	Username        string `env:"DB_USERNAME" envDefault:"exchange"`
	Password        string `env:"DB_PASSWORD" envDefault:"exchange"`
	SSLMode         string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConnAttempts int    `env:"DB_MAX_CONN_ATTEMPTS" envDefault:"5"`
	MaxConns        int    `env:"DB_MAX_CONNS" envDefault:"20"`
	TxRetries       int    `env:"DB_TX_RETRIES" envDefault:"5"`
	Migrate         bool   `env:"DB_MIGRATE" envDefault:"true"`
}

// DSN returns the DSN for the database
func (c PostgreSQL) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("%s://%s:%s@%s:%s/%s?sslmode=%s",
		c.Driver,
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

// Process configures the outbox consumer.
type Process struct {
	OutboxInterval    time.Duration `env:"OUTBOX_INTERVAL" envDefault:"5s"`
	OutboxBatchSize   int           `env:"OUTBOX_BATCH_SIZE" envDefault:"50"`
	OutboxMaxAttempts int           `env:"OUTBOX_MAX_ATTEMPTS" envDefault:"10"`
	OutboxLease       time.Duration `env:"OUTBOX_LEASE" envDefault:"30s"`
}

// Rates configures the exchange rate provider and cache.
type Rates struct {
	ProviderURL       string        `env:"RATES_PROVIDER_URL" envDefault:"https://open.er-api.com/v6/latest/USD"`
	CacheTTL          time.Duration `env:"RATES_CACHE_TTL" envDefault:"1h"`
	RefreshSchedule   string        `env:"RATES_REFRESH_SCHEDULE" envDefault:"@every 30m"`
	RequestTimeout    time.Duration `env:"RATES_REQUEST_TIMEOUT" envDefault:"5s"`
	RequestsPerMinute int           `env:"RATES_REQUESTS_PER_MINUTE" envDefault:"30"`
}

// Commission holds the process wide commission rates.
type Commission struct {
	// PlatformRate is a fraction: 0.10 means 10%.
	PlatformRate float64 `env:"COMMISSION_PLATFORM_RATE" envDefault:"0.10"`
	// ContractorRate is a percentage: 0.85 means 0.85%.
	ContractorRate       float64 `env:"COMMISSION_CONTRACTOR_RATE" envDefault:"0.85"`
	FallbackReferralCode string  `env:"COMMISSION_FALLBACK_REFERRAL_CODE" envDefault:"A64S"`
	FallbackContractorID string  `env:"COMMISSION_FALLBACK_CONTRACTOR_ID" envDefault:"7d1c7e2a-55b4-4c8f-9a3e-3f1f5b0c2a64"`
	MinDepositAmount     float64 `env:"DEPOSIT_MIN_AMOUNT" envDefault:"100"`
	MaxDepositAmount     float64 `env:"DEPOSIT_MAX_AMOUNT" envDefault:"200000"`
}

type Ledger struct {
	AllowNegativeBalance bool `env:"LEDGER_ALLOW_NEGATIVE_BALANCE" envDefault:"true"`
}

// Notify configures outbound notification delivery.
type Notify struct {
	Timeout          time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"3s"`
	TelegramURL      string        `env:"NOTIFY_TELEGRAM_URL" envDefault:"http://localhost:8080/telegram/internal/notify/transaction"`
	BreakerFailures  int           `env:"NOTIFY_BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout   time.Duration `env:"NOTIFY_BREAKER_TIMEOUT" envDefault:"30s"`
	RequestsPerSec   float64       `env:"NOTIFY_REQUESTS_PER_SECOND" envDefault:"10"`
	WebSocketBacklog int           `env:"NOTIFY_WS_BACKLOG" envDefault:"16"`
}

type Telegram struct {
	BotToken      string  `env:"TELEGRAM_BOT_TOKEN" envDefault:""`
	AdminChatID   int64   `env:"TELEGRAM_ADMIN_CHAT_ID" envDefault:"0"`
	InternalToken string  `env:"TELEGRAM_INTERNAL_TOKEN" envDefault:""`
	SendPerSecond float64 `env:"TELEGRAM_SEND_PER_SECOND" envDefault:"20"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET" envDefault:"secret"`
}

type Log struct {
	Level   string `env:"LOG_LEVEL" envDefault:"info"`
	File    string `env:"LOG_FILE" envDefault:""`
	Console bool   `env:"LOG_CONSOLE" envDefault:"true"`
}

// Load loads the configuration from .env, environment variables and command line flags.
// It panics on invalid values, the process cannot start without a config.
func Load() *Config {
	once.Do(func() {
		c, err := Parse(os.Args[1:])
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %s", err))
		}
		cfg = c
	})

	return cfg
}

// Parse builds a Config from the environment and the given arguments.
// Unknown flags are ignored so test binaries can call it.
func Parse(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("godotenv.Load: %w", err)
	}

	c := &Config{}
	sections := []interface{}{
		&c.App, &c.Server, &c.PostgreSQL, &c.Process, &c.Rates,
		&c.Commission, &c.Ledger, &c.Notify, &c.Telegram, &c.Auth, &c.Log,
	}
	for _, section := range sections {
		if err := env.Parse(section); err != nil {
			return nil, fmt.Errorf("env.Parse: %w", err)
		}
	}

	flags := pflag.NewFlagSet("exchange", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist = pflag.ParseErrorsWhitelist{UnknownFlags: true}
	port := flags.StringP("port", "a", c.Server.Port, "HTTP listen port.")
	dsn := flags.StringP("dsn", "d", c.PostgreSQL.URL, "Database DSN, overrides DB_* settings.")
	level := flags.StringP("log_level", "l", c.Log.Level, "Log level.")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("flags.Parse: %w", err)
	}
	c.Server.Port = *port
	c.PostgreSQL.URL = *dsn
	c.Log.Level = *level

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) validate() error {
	if c.Commission.PlatformRate < 0 || c.Commission.PlatformRate >= 1 {
		return fmt.Errorf("COMMISSION_PLATFORM_RATE must be in [0, 1), got %v", c.Commission.PlatformRate)
	}
	if c.Commission.ContractorRate < 0 || c.Commission.ContractorRate >= 100 {
		return fmt.Errorf("COMMISSION_CONTRACTOR_RATE must be in [0, 100), got %v", c.Commission.ContractorRate)
	}
	if c.Commission.MinDepositAmount > c.Commission.MaxDepositAmount {
		return fmt.Errorf("DEPOSIT_MIN_AMOUNT exceeds DEPOSIT_MAX_AMOUNT")
	}
	if c.Process.OutboxBatchSize < 1 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive")
	}
	// zero or negative durations disable http.Client timeouts or panic tickers
	for name, d := range map[string]time.Duration{
		"NOTIFY_TIMEOUT":         c.Notify.Timeout,
		"RATES_REQUEST_TIMEOUT":  c.Rates.RequestTimeout,
		"OUTBOX_INTERVAL":        c.Process.OutboxInterval,
		"NOTIFY_BREAKER_TIMEOUT": c.Notify.BreakerTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	return nil
}
