package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSecrets map[string]string

func (s stubSecrets) GetSecret(ctx context.Context, name string) (string, error) {
	if v, ok := s[name]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func setDBEnv(t *testing.T) {
	t.Setenv("POSTGRES_USER", "orders")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "farmdirect")
	t.Setenv("POSTGRES_HOST", "localhost")
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	setDBEnv(t)
	t.Setenv("ADMIN_EMAILS", " boss@farmdirect.co.uk, ,ops@farmdirect.co.uk")
	t.Setenv("KAFKA_BROKERS", "kafka:9092")

	cfg := configFromEnv()
	require.NoError(t, cfg.validate())

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "UTC", cfg.Postgres.TimeZone)
	assert.Equal(t, []string{"boss@farmdirect.co.uk", "ops@farmdirect.co.uk"}, cfg.AdminEmails)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "order.lifecycle", cfg.OrderEventsTopic)
	assert.Equal(t, time.Minute, cfg.OutboxRelayInterval)
	assert.Equal(t, 5, cfg.OutboxMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.CheckoutDedupeTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.RedisURL)
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	setDBEnv(t)
	t.Setenv("OUTBOX_RELAY_INTERVAL", "15s")
	t.Setenv("OUTBOX_MAX_ATTEMPTS", "9")
	t.Setenv("REQUEST_TIMEOUT", "bogus")

	cfg := configFromEnv()
	assert.Equal(t, 15*time.Second, cfg.OutboxRelayInterval)
	assert.Equal(t, 9, cfg.OutboxMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestValidate_RequiresCORSOrigin(t *testing.T) {
	setDBEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", " , ")
	assert.Error(t, configFromEnv().validate())
}

func TestValidate_IncompleteDB(t *testing.T) {
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("POSTGRES_DB", "")
	t.Setenv("POSTGRES_HOST", "")
	assert.Error(t, configFromEnv().validate())
}

func TestApplySecrets(t *testing.T) {
	setDBEnv(t)
	cfg := configFromEnv()

	applySecrets(context.Background(), cfg, stubSecrets{
		"orders/DB_CREDENTIALS": `{"POSTGRES_PASSWORD":"rotated","POSTGRES_HOST":"db.internal"}`,
		"orders/ADMIN_EMAILS":   "a@x.com,b@x.com",
	})

	assert.Equal(t, "rotated", cfg.Postgres.Password)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, "orders", cfg.Postgres.User)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, cfg.AdminEmails)
	assert.Empty(t, cfg.JWTSecret)
}

func TestApplySecrets_MalformedCredentialsKeepEnv(t *testing.T) {
	setDBEnv(t)
	cfg := configFromEnv()

	applySecrets(context.Background(), cfg, stubSecrets{
		"orders/DB_CREDENTIALS": `{"POSTGRES_PASSWORD":`,
		"orders/JWT_SECRET":     "s3cret",
	})

	assert.Equal(t, "pw", cfg.Postgres.Password)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}
