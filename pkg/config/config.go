package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Saga         SagaConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WALLETHUB_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"WALLETHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WALLETHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"WALLETHUB_SERVICE_KIND" default:"saga-worker"`
}

type DBConfig struct {
	DSN    string `envconfig:"WALLETHUB_DB_DSN"`
	Driver string `envconfig:"WALLETHUB_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"WALLETHUB_DB_HOST"`
	Port     int    `envconfig:"WALLETHUB_DB_PORT" default:"5432"`
	User     string `envconfig:"WALLETHUB_DB_USER"`
	Password string `envconfig:"WALLETHUB_DB_PASSWORD"`
	Name     string `envconfig:"WALLETHUB_DB_NAME"`
	SSLMode  string `envconfig:"WALLETHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"WALLETHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WALLETHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WALLETHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WALLETHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"WALLETHUB_REDIS_URL"`
	Address      string        `envconfig:"WALLETHUB_REDIS_ADDR"`
	Password     string        `envconfig:"WALLETHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"WALLETHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WALLETHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WALLETHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WALLETHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WALLETHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WALLETHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WALLETHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WALLETHUB_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"WALLETHUB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	EventSource    string        `envconfig:"WALLETHUB_EVENTING_SOURCE" default:"//wallet-hub"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"WALLETHUB_GCP_PROJECT_ID" required:"true"`
}

// PubSubConfig names the subscriptions the saga worker consumes. Topics are not
// configured anywhere: they are derived from the event type (see enums.OutboxEventType).
type PubSubConfig struct {
	WalletCreatedSubscription    string `envconfig:"WALLETHUB_PUBSUB_WALLET_CREATED_SUBSCRIPTION"`
	FundsAddedSubscription       string `envconfig:"WALLETHUB_PUBSUB_FUNDS_ADDED_SUBSCRIPTION"`
	FundsWithdrawnSubscription   string `envconfig:"WALLETHUB_PUBSUB_FUNDS_WITHDRAWN_SUBSCRIPTION"`
	FundsTransferredSubscription string `envconfig:"WALLETHUB_PUBSUB_FUNDS_TRANSFERRED_SUBSCRIPTION"`
	SagaCompletedSubscription    string `envconfig:"WALLETHUB_PUBSUB_SAGA_COMPLETED_SUBSCRIPTION"`
	SagaFailedSubscription       string `envconfig:"WALLETHUB_PUBSUB_SAGA_FAILED_SUBSCRIPTION"`
}

// Subscriptions returns the configured subscription names, skipping blanks.
func (p PubSubConfig) Subscriptions() []string {
	names := []string{}
	for _, name := range []string{
		p.WalletCreatedSubscription,
		p.FundsAddedSubscription,
		p.FundsWithdrawnSubscription,
		p.FundsTransferredSubscription,
		p.SagaCompletedSubscription,
		p.SagaFailedSubscription,
	} {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

type OutboxConfig struct {
	PollInterval   time.Duration `envconfig:"WALLETHUB_OUTBOX_POLL_INTERVAL" default:"5s"`
	BatchSize      int           `envconfig:"WALLETHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	MaxConcurrency int           `envconfig:"WALLETHUB_OUTBOX_MAX_CONCURRENCY" default:"8"`
	PublishTimeout time.Duration `envconfig:"WALLETHUB_OUTBOX_PUBLISH_TIMEOUT" default:"15s"`
}

type SagaConfig struct {
	RecordHistory bool `envconfig:"WALLETHUB_SAGA_RECORD_HISTORY" default:"true"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"WALLETHUB_CRON_INTERVAL" default:"24h"`
	OutboxRetentionDays int           `envconfig:"WALLETHUB_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	pieces := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbEnvVars {
		if pieces[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
