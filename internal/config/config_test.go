package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_NAME", "scholar_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Contains(t, cfg.DatabaseURL, "dbname=scholar_test")
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 5*time.Second, cfg.PollConversationInterval)
	assert.Equal(t, 10*time.Second, cfg.PollBadgeInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.MessageRateLimit)
	assert.Equal(t, "0 3 * * *", cfg.ReindexSchedule)
	assert.Equal(t, 6*time.Second, cfg.AuthThrottleInterval)
	assert.Equal(t, 5, cfg.AuthThrottleBurst)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ADMIN_EMAIL", "  Office@Example.COM ")
	t.Setenv("POLL_CONVERSATION_INTERVAL", "4s")
	t.Setenv("JWT_TTL_MINUTES", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "office@example.com", cfg.AdminEmail)
	assert.Equal(t, 4*time.Second, cfg.PollConversationInterval)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("POLL_BADGE_INTERVAL", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "POLL_BADGE_INTERVAL")
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
