package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Cache        CacheConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Events       EventsConfig
	Notification NotificationConfig
	Reconcile    ReconcileConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name    string `envconfig:"APP_NAME" default:"learning-platform"`
	Env     string `envconfig:"APP_ENV" default:"development"`
	Host    string `envconfig:"APP_HOST" default:"0.0.0.0"`
	Port    string `envconfig:"APP_PORT" default:"5000"`
	Version string `envconfig:"APP_VERSION" default:"dev"`
}

// HTTPConfig holds transport limits.
type HTTPConfig struct {
	RequestTimeoutSeconds int      `envconfig:"HTTP_REQUEST_TIMEOUT_SECONDS" default:"15"`
	BodyLimitBytes        int      `envconfig:"HTTP_BODY_LIMIT_BYTES" default:"1048576"`
	CORSOrigins           []string `envconfig:"HTTP_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:3003"`
	RateLimitMax          int      `envconfig:"HTTP_RATE_LIMIT_MAX" default:"100"`
	RateLimitWindowSec    int      `envconfig:"HTTP_RATE_LIMIT_WINDOW_SECONDS" default:"600"`
}

// PostgresConfig holds DB connection values. An empty DSN selects the
// in-memory store.
type PostgresConfig struct {
	DSN            string `envconfig:"POSTGRES_DSN"`
	MaxConns       int32  `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
	MinConns       int32  `envconfig:"POSTGRES_MIN_CONNS" default:"2"`
	RunMigrations  bool   `envconfig:"POSTGRES_RUN_MIGRATIONS" default:"true"`
	MigrationsDir  string `envconfig:"POSTGRES_MIGRATIONS_DIR" default:"migrations"`
	ConnMaxIdleSec int32  `envconfig:"POSTGRES_CONN_MAX_IDLE_SECONDS" default:"30"`
	ConnMaxLifeSec int32  `envconfig:"POSTGRES_CONN_MAX_LIFE_SECONDS" default:"300"`
}

// RedisConfig holds Redis connection values. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// CacheConfig controls cached read models.
type CacheConfig struct {
	CourseTTLSeconds int `envconfig:"CACHE_COURSE_TTL_SECONDS" default:"300"`
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string `envconfig:"AUTH_JWT_SECRET" default:"dev-secret"`
	AccessTokenTTLMinutes int    `envconfig:"AUTH_ACCESS_TOKEN_TTL_MINUTES" default:"43200"`
	BcryptCost            int    `envconfig:"AUTH_BCRYPT_COST" default:"10"`
}

// EventsConfig selects the event bus. No brokers means in-process delivery.
type EventsConfig struct {
	Topic         string   `envconfig:"EVENTS_TOPIC" default:"learning.events"`
	KafkaBrokers  []string `envconfig:"EVENTS_KAFKA_BROKERS"`
	ConsumerGroup string   `envconfig:"EVENTS_CONSUMER_GROUP" default:"learning-platform"`
}

// NotificationConfig holds outbound notification endpoints.
type NotificationConfig struct {
	EmailFrom             string `envconfig:"NOTIFY_EMAIL_FROM" default:"noreply@example.com"`
	SendGridAPIKey        string `envconfig:"NOTIFY_SENDGRID_API_KEY"`
	WebhookURL            string `envconfig:"NOTIFY_WEBHOOK_URL"`
	WebhookTimeoutSeconds int    `envconfig:"NOTIFY_WEBHOOK_TIMEOUT_SECONDS" default:"5"`
}

// ReconcileConfig schedules statistics recomputation.
type ReconcileConfig struct {
	Cron string `envconfig:"RECONCILE_CRON"`
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must not be empty")
	}
	return &cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs in production mode.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// RequestTimeout returns the configured request timeout duration.
func (h HTTPConfig) RequestTimeout() time.Duration {
	if h.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(h.RequestTimeoutSeconds) * time.Second
}

// RateLimitWindow returns the rate limiter window.
func (h HTTPConfig) RateLimitWindow() time.Duration {
	return time.Duration(h.RateLimitWindowSec) * time.Second
}

// CourseTTL returns how long a course detail stays cached.
func (c CacheConfig) CourseTTL() time.Duration {
	return time.Duration(c.CourseTTLSeconds) * time.Second
}

// AccessTokenTTL returns the token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// WebhookTimeout returns the outbound webhook timeout.
func (n NotificationConfig) WebhookTimeout() time.Duration {
	return time.Duration(n.WebhookTimeoutSeconds) * time.Second
}
