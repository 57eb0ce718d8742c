package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BASE_URL", "https://bot.example")
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("MP_ACCESS_TOKEN", "mp-tok")
}

func TestLoadDefaults(t *testing.T) {
	validEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "./data/orders.db", cfg.LedgerPath)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadRequiresCredentials(t *testing.T) {
	validEnv(t)
	t.Setenv("DISCORD_TOKEN", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsTrailingSlashBase(t *testing.T) {
	validEnv(t)
	t.Setenv("BASE_URL", "https://bot.example/")
	_, err := Load()
	assert.Error(t, err)
}

func TestSessionTTLParsing(t *testing.T) {
	validEnv(t)

	t.Setenv("SESSION_TTL", "45m")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, cfg.SessionTTL)

	t.Setenv("SESSION_TTL", "15")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)

	t.Setenv("SESSION_TTL", "garbage")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
}

func TestIsDevelopment(t *testing.T) {
	validEnv(t)
	t.Setenv("BASE_URL", "http://localhost:8080")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
}
