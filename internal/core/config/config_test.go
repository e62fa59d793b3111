package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://siap@localhost/siap")
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("TOKEN_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppHost)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5, cfg.LoginRateLimit)
	assert.NoError(t, cfg.ValidateServer())
}

func TestValidateServer(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://x", AppEnv: "production", JWTSecret: "short"}
	assert.Error(t, cfg.ValidateServer())

	cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
	assert.NoError(t, cfg.ValidateServer())

	assert.Error(t, (&Config{JWTSecret: "x"}).ValidateServer())
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("TOKEN_TTL", "forever")

	_, err := Load()
	assert.Error(t, err)
}
