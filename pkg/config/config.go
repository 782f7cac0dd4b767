package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	UserID   string

	// Database
	DatabaseURL      string
	SQLitePath       string
	DatabaseMaxConns int
	// ProfileEncryptionKey is a base64 32-byte key sealing profile fields at rest.
	ProfileEncryptionKey string

	// Redis
	RedisURL string

	// RabbitMQ
	RabbitMQURL string

	// Reminders
	ReminderInterval        time.Duration
	ReminderDispatchTimeout time.Duration
	ReminderConcurrency     int
	ReminderDedupEnabled    bool
	ReminderDedupTTL        time.Duration
	ReminderTimezone        string
	ReminderStatsInterval   time.Duration

	// Mail
	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	SMTPSecure bool
	FromEmail  string

	// Circuit breaker around mail delivery
	BreakerMaxRequests      uint32
	BreakerInterval         time.Duration
	BreakerTimeout          time.Duration
	BreakerFailureThreshold uint32

	// Outbox
	OutboxPollInterval    time.Duration
	OutboxBatchSize       int
	OutboxMaxRetries      int
	OutboxRetentionDays   int
	OutboxCleanupInterval time.Duration

	// Worker
	WorkerHealthAddr string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		UserID:      getEnv("CYCLIST_USER_ID", "00000000-0000-0000-0000-000000000001"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", ""),

		DatabaseMaxConns: getIntEnv("DATABASE_MAX_CONNS", 0),

		ProfileEncryptionKey: getEnv("PROFILE_ENCRYPTION_KEY", ""),
		RedisURL:             getEnv("REDIS_URL", ""),
		RabbitMQURL:          getEnv("RABBITMQ_URL", ""),

		ReminderInterval:        getDurationEnv("REMINDER_INTERVAL", time.Minute),
		ReminderDispatchTimeout: getDurationEnv("REMINDER_DISPATCH_TIMEOUT", 10*time.Second),
		ReminderConcurrency:     getIntEnv("REMINDER_CONCURRENCY", 8),
		ReminderDedupEnabled:    getBoolEnv("REMINDER_DEDUP_ENABLED", false),
		ReminderDedupTTL:        getDurationEnv("REMINDER_DEDUP_TTL", 2*time.Hour),
		ReminderTimezone:        getEnv("REMINDER_TIMEZONE", "Local"),
		ReminderStatsInterval:   getDurationEnv("REMINDER_STATS_INTERVAL", 30*time.Minute),

		SMTPHost:   getEnv("SMTP_HOST", ""),
		SMTPPort:   getIntEnv("SMTP_PORT", 587),
		SMTPUser:   getEnv("SMTP_USER", ""),
		SMTPPass:   getEnv("SMTP_PASS", ""),
		SMTPSecure: getBoolEnv("SMTP_SECURE", false),
		FromEmail:  getEnv("FROM_EMAIL", "no-reply@spot-on.test"),

		BreakerMaxRequests:      uint32(getIntEnv("BREAKER_MAX_REQUESTS", 1)),
		BreakerInterval:         getDurationEnv("BREAKER_INTERVAL", time.Minute),
		BreakerTimeout:          getDurationEnv("BREAKER_TIMEOUT", 2*time.Minute),
		BreakerFailureThreshold: uint32(getIntEnv("BREAKER_FAILURE_THRESHOLD", 5)),

		OutboxPollInterval:    getDurationEnv("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxBatchSize:       getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:      getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays:   getIntEnv("OUTBOX_RETENTION_DAYS", 7),
		OutboxCleanupInterval: getDurationEnv("OUTBOX_CLEANUP_INTERVAL", time.Hour),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
	}

	if cfg.ReminderInterval <= 0 {
		return nil, fmt.Errorf("REMINDER_INTERVAL must be positive, got %s", cfg.ReminderInterval)
	}
	if cfg.OutboxPollInterval <= 0 {
		return nil, fmt.Errorf("OUTBOX_POLL_INTERVAL must be positive, got %s", cfg.OutboxPollInterval)
	}
	if cfg.ReminderConcurrency < 1 {
		cfg.ReminderConcurrency = 1
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location resolves ReminderTimezone. Reminder times of day are interpreted in it.
func (c *Config) Location() (*time.Location, error) {
	switch c.ReminderTimezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_TIMEZONE %q: %w", c.ReminderTimezone, err)
	}
	return loc, nil
}

// SMTPConfigured reports whether an SMTP relay has been configured.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
