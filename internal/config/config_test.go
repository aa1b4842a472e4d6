package config

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_TOKEN_MODE", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, ":3001", cfg.Server.Addr())
	assert.Equal(t, TokenModeLegacy, cfg.Auth.TokenMode)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.True(t, cfg.Migrations.SeedOnStart)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "7")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("AUTH_TOKEN_MODE", "jwt")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, TokenModeJWT, cfg.Auth.TokenMode)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DATABASE_MAX_IDLE_CONNS", "many")
	t.Setenv("SERVER_READ_TIMEOUT", "soon")
	t.Setenv("AUTH_TOKEN_MODE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
}

func TestValidate(t *testing.T) {
	t.Setenv("AUTH_TOKEN_MODE", "jwt")
	t.Setenv("AUTH_JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("AUTH_TOKEN_MODE", "magic")
	_, err = Load()
	assert.Error(t, err)
}

func TestBindFlags(t *testing.T) {
	t.Setenv("AUTH_TOKEN_MODE", "")
	cfg, err := Load()
	require.NoError(t, err)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-a", "127.0.0.1:8000", "-l", "debug"}))

	assert.Equal(t, "127.0.0.1:8000", cfg.Server.Addr())
	assert.Equal(t, "debug", cfg.Log.Level)
}
