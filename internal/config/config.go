package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

var (
	ErrUnknownStorage = errors.New("unknown storage driver")
	ErrMissingDSN     = errors.New("PG_DSN is required for the postgres storage driver")
	ErrInvalidBudget  = errors.New("SETTLEMENT_TRANSFER_BUDGET must be positive")
)

type Config struct {
	App        App
	HTTP       HTTP
	Storage    Storage
	Postgres   Postgres
	Redis      Redis
	Custody    Custody
	Settlement Settlement
	Deposit    Deposit
	Bot        Bot
}

type App struct {
	Name           string `env:"APP_NAME" envDefault:"nft-market"`
	Version        string `env:"APP_VERSION" envDefault:"dev"`
	LogFieldMaxLen int    `env:"LOG_FIELD_MAX_LEN" envDefault:"2048"`
}

type HTTP struct {
	ListenAddress        string        `env:"HTTP_LISTEN_ADDRESS" envDefault:":8080"`
	ProbeListenAddress   string        `env:"PROBE_LISTEN_ADDRESS" envDefault:":8081"`
	MetricsListenAddress string        `env:"METRICS_LISTEN_ADDRESS" envDefault:":9090"`
	ReadHeaderTimeout    time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout      time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Storage выбирает, где живут продажи и расчёты. memory годится для локального
// запуска и тестов: всё пропадает при рестарте.
type Storage struct {
	Driver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
}

type Redis struct {
	Address            string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	Username           string `env:"REDIS_USERNAME"`
	Password           string `env:"REDIS_PASSWORD" json:"-"`
	DatabaseNumber     int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize           int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConnections int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"1"`
	MaxIdleConnections int    `env:"REDIS_MAX_IDLE_CONNS" envDefault:"5"`
}

type Custody struct {
	URL      string        `env:"CUSTODY_URL,notEmpty"`
	APIToken string        `env:"CUSTODY_API_TOKEN" json:"-"`
	Timeout  time.Duration `env:"CUSTODY_TIMEOUT" envDefault:"30s"`
}

type Settlement struct {
	// TransferBudget ограничивает ожидание результата перевода. По истечении
	// расчёт закрывается возвратом средств.
	TransferBudget time.Duration `env:"SETTLEMENT_TRANSFER_BUDGET" envDefault:"1m"`
	// ResolveGrace добавляется к бюджету при остановке воркера, чтобы успеть
	// записать результат перевода.
	ResolveGrace time.Duration `env:"SETTLEMENT_RESOLVE_GRACE" envDefault:"10s"`
	Queue        string        `env:"SETTLEMENT_QUEUE" envDefault:"settlements"`
	Concurrency  int           `env:"SETTLEMENT_CONCURRENCY" envDefault:"10"`
}

type Deposit struct {
	Key      string        `env:"DEPOSIT_KEY" envDefault:"market:storage_deposits"`
	CacheTTL time.Duration `env:"DEPOSIT_CACHE_TTL" envDefault:"1m"`
}

// Bot необязателен: без токена уведомления и операторский бот не запускаются.
type Bot struct {
	Token   string `env:"BOT_TOKEN" json:"-"`
	ChatID  int64  `env:"BOT_CHAT_ID"`
	AdminID int64  `env:"BOT_ADMIN_ID"`
}

func (b Bot) Enabled() bool {
	return b.Token != ""
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) validate() error {
	if c.Settlement.TransferBudget <= 0 {
		return ErrInvalidBudget
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return ErrMissingDSN
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, c.Storage.Driver)
	}

	return nil
}
