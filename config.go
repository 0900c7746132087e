package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	awspkg "github.com/arturocano02/FarmDirect-sub000/pkg/aws"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppEnv   string
	Postgres struct {
		User     string
		Password string
		DB       string
		Host     string
		Port     string
		SSLMode  string
		TimeZone string
	}

	AdminEmails []string
	JWTSecret   string

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	AdminAlertEmail string

	OrderSNSTopicArn    string
	KafkaBrokers        []string
	OrderEventsTopic    string
	CheckoutQueueURL    string
	DeliveryQueueURL    string
	OutboxRelayInterval time.Duration
	OutboxMaxAttempts   int
	RequestTimeout      time.Duration
	CloudWatchEnabled   bool
	CloudWatchLogGroup  string
	UseSecretsManager   bool
	RedisURL            string
	CheckoutDedupeTTL   time.Duration
	CORSAllowedOrigins  []string
}

func LoadConfig(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()

	cfg := configFromEnv()
	if cfg.UseSecretsManager {
		awsCfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("secrets manager requested but aws config failed: %w", err)
		}
		applySecrets(ctx, cfg, awspkg.NewSecretsClient(awsCfg))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFromEnv() *Config {
	cfg := &Config{
		Port:                getEnv("PORT", "8090"),
		AppEnv:              getEnv("APP_ENV", "development"),
		AdminEmails:         splitList(os.Getenv("ADMIN_EMAILS")),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            getEnv("SMTP_PORT", "587"),
		SMTPUser:            os.Getenv("SMTP_USER"),
		SMTPPass:            os.Getenv("SMTP_PASS"),
		SMTPFrom:            os.Getenv("SMTP_FROM"),
		TwilioAccountSID:    os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:    os.Getenv("TWILIO_FROM_NUMBER"),
		AdminAlertEmail:     os.Getenv("ADMIN_ALERT_EMAIL"),
		OrderSNSTopicArn:    os.Getenv("ORDER_SNS_TOPIC_ARN"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic:    getEnv("ORDER_EVENTS_TOPIC", "order.lifecycle"),
		CheckoutQueueURL:    os.Getenv("CHECKOUT_SQS_QUEUE_URL"),
		DeliveryQueueURL:    os.Getenv("DELIVERY_SQS_QUEUE_URL"),
		OutboxRelayInterval: getDuration("OUTBOX_RELAY_INTERVAL", time.Minute),
		OutboxMaxAttempts:   getInt("OUTBOX_MAX_ATTEMPTS", 5),
		RequestTimeout:      getDuration("REQUEST_TIMEOUT", 30*time.Second),
		CloudWatchEnabled:   os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/farmdirect/order-service"),
		UseSecretsManager:   os.Getenv("AWS_USE_SECRETS") == "true",
		RedisURL:            os.Getenv("REDIS_URL"),
		CheckoutDedupeTTL:   getDuration("CHECKOUT_DEDUPE_TTL", 24*time.Hour),
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}
	cfg.Postgres.User = os.Getenv("POSTGRES_USER")
	cfg.Postgres.Password = os.Getenv("POSTGRES_PASSWORD")
	cfg.Postgres.DB = os.Getenv("POSTGRES_DB")
	cfg.Postgres.Host = os.Getenv("POSTGRES_HOST")
	cfg.Postgres.Port = getEnv("POSTGRES_PORT", "5432")
	cfg.Postgres.SSLMode = getEnv("POSTGRES_SSLMODE", "disable")
	cfg.Postgres.TimeZone = getEnv("POSTGRES_TIMEZONE", "UTC")
	return cfg
}

// applySecrets overrides env values with Secrets Manager entries. Missing or
// unreadable secrets leave the env values in place.
func applySecrets(ctx context.Context, cfg *Config, sm awspkg.SecretGetter) {
	if creds, err := awspkg.GetJSONSecret[awspkg.DBCredentials](ctx, sm, "orders/DB_CREDENTIALS"); err == nil {
		overrideIfSet(&cfg.Postgres.User, creds.User)
		overrideIfSet(&cfg.Postgres.Password, creds.Password)
		overrideIfSet(&cfg.Postgres.DB, creds.DB)
		overrideIfSet(&cfg.Postgres.Host, creds.Host)
		overrideIfSet(&cfg.Postgres.Port, creds.Port)
	}
	if v, err := sm.GetSecret(ctx, "orders/JWT_SECRET"); err == nil && v != "" {
		cfg.JWTSecret = v
	}
	if v, err := sm.GetSecret(ctx, "orders/ADMIN_EMAILS"); err == nil && v != "" {
		cfg.AdminEmails = splitList(v)
	}
}

func overrideIfSet(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) validate() error {
	if c.Postgres.User == "" || c.Postgres.Password == "" || c.Postgres.DB == "" || c.Postgres.Host == "" {
		return fmt.Errorf("database config incomplete")
	}
	if c.OutboxRelayInterval <= 0 {
		return fmt.Errorf("OUTBOX_RELAY_INTERVAL must be positive")
	}
	if len(c.CORSAllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS must list at least one origin")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
