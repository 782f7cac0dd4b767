package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars clears all cyclist-related environment variables.
func clearEnvVars() {
	envVars := []string{
		"APP_ENV", "LOG_LEVEL", "CYCLIST_USER_ID",
		"DATABASE_URL", "SQLITE_PATH", "DATABASE_MAX_CONNS", "PROFILE_ENCRYPTION_KEY", "REDIS_URL", "RABBITMQ_URL",
		"REMINDER_INTERVAL", "REMINDER_DISPATCH_TIMEOUT", "REMINDER_CONCURRENCY",
		"REMINDER_DEDUP_ENABLED", "REMINDER_DEDUP_TTL", "REMINDER_TIMEZONE",
		"REMINDER_STATS_INTERVAL",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_SECURE", "FROM_EMAIL",
		"BREAKER_MAX_REQUESTS", "BREAKER_INTERVAL", "BREAKER_TIMEOUT", "BREAKER_FAILURE_THRESHOLD",
		"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_RETRIES",
		"OUTBOX_RETENTION_DAYS", "OUTBOX_CLEANUP_INTERVAL",
		"WORKER_HEALTH_ADDR",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, 0, cfg.DatabaseMaxConns)

	// Reminder defaults
	assert.Equal(t, time.Minute, cfg.ReminderInterval)
	assert.Equal(t, 10*time.Second, cfg.ReminderDispatchTimeout)
	assert.Equal(t, 8, cfg.ReminderConcurrency)
	assert.False(t, cfg.ReminderDedupEnabled)
	assert.Equal(t, 2*time.Hour, cfg.ReminderDedupTTL)
	assert.Equal(t, "Local", cfg.ReminderTimezone)

	// Mail defaults
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "no-reply@spot-on.test", cfg.FromEmail)
	assert.False(t, cfg.SMTPConfigured())

	assert.Equal(t, uint32(5), cfg.BreakerFailureThreshold)

	// Outbox defaults
	assert.Equal(t, time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
	assert.Equal(t, 5, cfg.OutboxMaxRetries)
	assert.Equal(t, 7, cfg.OutboxRetentionDays)
	assert.Equal(t, time.Hour, cfg.OutboxCleanupInterval)

	assert.Equal(t, "0.0.0.0:8081", cfg.WorkerHealthAddr)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_WithCustomEnvVars(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("APP_ENV", "production")
	os.Setenv("REMINDER_INTERVAL", "30s")
	os.Setenv("REMINDER_CONCURRENCY", "2")
	os.Setenv("REMINDER_DEDUP_ENABLED", "true")
	os.Setenv("REMINDER_TIMEZONE", "UTC")
	os.Setenv("SMTP_HOST", "smtp.example.com")
	os.Setenv("SMTP_USER", "mailer")
	os.Setenv("SMTP_PORT", "2525")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30*time.Second, cfg.ReminderInterval)
	assert.Equal(t, 2, cfg.ReminderConcurrency)
	assert.True(t, cfg.ReminderDedupEnabled)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.True(t, cfg.SMTPConfigured())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("REMINDER_DISPATCH_TIMEOUT", "soon")
	os.Setenv("REMINDER_CONCURRENCY", "many")
	os.Setenv("REMINDER_DEDUP_ENABLED", "perhaps")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.ReminderDispatchTimeout)
	assert.Equal(t, 8, cfg.ReminderConcurrency)
	assert.False(t, cfg.ReminderDedupEnabled)
}

func TestLoad_ConcurrencyClampedToOne(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("REMINDER_CONCURRENCY", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.ReminderConcurrency)
}

func TestLoad_RejectsNonPositiveInterval(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("REMINDER_INTERVAL", "-1m")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REMINDER_INTERVAL")
}

func TestLoad_RejectsUnknownTimezone(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("REMINDER_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REMINDER_TIMEZONE")
}

func TestLoad_OutboxSettings(t *testing.T) {
	clearEnvVars()
	defer clearEnvVars()

	os.Setenv("OUTBOX_POLL_INTERVAL", "250ms")
	os.Setenv("OUTBOX_MAX_RETRIES", "3")
	os.Setenv("OUTBOX_RETENTION_DAYS", "30")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 3, cfg.OutboxMaxRetries)
	assert.Equal(t, 30, cfg.OutboxRetentionDays)

	os.Setenv("OUTBOX_POLL_INTERVAL", "0s")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OUTBOX_POLL_INTERVAL")
}
