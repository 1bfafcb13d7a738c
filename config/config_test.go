package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "postgres://localhost:5432/vault?sslmode=disable")
	t.Setenv("AUTH_JWT_SECRET", "test-secret-key-at-least-32-chars-long")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Empty(t, cfg.Auth.GoogleClientID)
	assert.False(t, cfg.IsProduction())
}

func TestLoadReadsAuthKeys(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_TOKEN_TTL", "24h")
	t.Setenv("AUTH_GOOGLE_CLIENT_ID", "client-123.apps.googleusercontent.com")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "client-123.apps.googleusercontent.com", cfg.Auth.GoogleClientID)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost:5432/vault?sslmode=disable")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}
