package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "PACKAXIS_APP_ENV"
	EnvPort     = "PACKAXIS_APP_PORT"
	EnvDBDSN    = "PACKAXIS_DB_DSN"
	EnvDBHost   = "PACKAXIS_DB_HOST"
	EnvDBUser   = "PACKAXIS_DB_USER"
	EnvDBName   = "PACKAXIS_DB_NAME"
	EnvRedisURL = "PACKAXIS_REDIS_URL"

	EnvGCPProjectID      = "PACKAXIS_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic = "PACKAXIS_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub   = "PACKAXIS_PUBSUB_ORDERS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Stripe       StripeConfig
	Sendgrid     SendgridConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"PACKAXIS_APP_ENV" required:"true"`
	Port         string `envconfig:"PACKAXIS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PACKAXIS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PACKAXIS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PACKAXIS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PACKAXIS_DB_DSN"`
	Driver string `envconfig:"PACKAXIS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PACKAXIS_DB_HOST"`
	LegacyPort     int    `envconfig:"PACKAXIS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PACKAXIS_DB_USER"`
	LegacyPassword string `envconfig:"PACKAXIS_DB_PASSWORD"`
	LegacyName     string `envconfig:"PACKAXIS_DB_NAME"`
	LegacySSLMode  string `envconfig:"PACKAXIS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PACKAXIS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PACKAXIS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PACKAXIS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PACKAXIS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PACKAXIS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PACKAXIS_REDIS_ADDR"`
	Password     string        `envconfig:"PACKAXIS_REDIS_PASSWORD"`
	DB           int           `envconfig:"PACKAXIS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PACKAXIS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PACKAXIS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PACKAXIS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PACKAXIS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PACKAXIS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CheckoutConfig tunes the quote endpoints. The calculation fallbacks
// themselves are named constants in the calculation packages, not config.
type CheckoutConfig struct {
	IdempotencyTTL  time.Duration `envconfig:"PACKAXIS_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
	MaxQuoteItems   int           `envconfig:"PACKAXIS_CHECKOUT_MAX_QUOTE_ITEMS" default:"200"`
	OrderNumberSalt string        `envconfig:"PACKAXIS_ORDER_NUMBER_SALT"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PACKAXIS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PACKAXIS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PACKAXIS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PACKAXIS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PACKAXIS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"PACKAXIS_PUBSUB_ORDERS_TOPIC" default:"pkx-order-events"`
	OrdersSubscription string `envconfig:"PACKAXIS_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PACKAXIS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PACKAXIS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PACKAXIS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey string `envconfig:"PACKAXIS_STRIPE_API_KEY"`
	Secret string `envconfig:"PACKAXIS_STRIPE_SECRET"`
	Env    string `envconfig:"PACKAXIS_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"PACKAXIS_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"PACKAXIS_SENDGRID_FROM_EMAIL"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
