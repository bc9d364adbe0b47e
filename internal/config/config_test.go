package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv removes keys for the duration of the test. envconfig applies
// defaults only to unset variables, so an empty value is not enough.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	unsetEnv(t,
		"APP_HOST", "APP_PORT",
		"HTTP_REQUEST_TIMEOUT_SECONDS", "HTTP_CORS_ORIGINS",
		"AUTH_ACCESS_TOKEN_TTL_MINUTES", "AUTH_BCRYPT_COST",
		"EVENTS_TOPIC", "EVENTS_KAFKA_BROKERS",
		"POSTGRES_MIGRATIONS_DIR", "POSTGRES_RUN_MIGRATIONS",
	)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.App.Addr())
	assert.Equal(t, 15*time.Second, cfg.HTTP.RequestTimeout())
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3003"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.Equal(t, "learning.events", cfg.Events.Topic)
	assert.Empty(t, cfg.Events.KafkaBrokers)
	assert.Equal(t, "migrations", cfg.Postgres.MigrationsDir)
	assert.True(t, cfg.Postgres.RunMigrations)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "3")
	t.Setenv("EVENTS_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("RECONCILE_CRON", "@every 1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTP.RequestTimeout())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, "@every 1h", cfg.Reconcile.Cron)
}

func TestLoadRejectsBadInt(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
