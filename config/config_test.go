package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMemoryDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("WITHDRAW_FEE_PERCENT", "")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://wishy-app.vercel.app")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.NotEmpty(t, cfg.SessionSecret)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 18*time.Second, cfg.AITimeout)
	assert.Equal(t, 1.0, cfg.WithdrawFeePercent)
	assert.Equal(t, []string{"http://localhost:3000", "https://wishy-app.vercel.app"}, cfg.AllowedOrigins)
}

func TestLoadMongoRequiresDatabaseURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNegativeFee(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("WITHDRAW_FEE_PERCENT", "-2")

	_, err := Load()
	assert.Error(t, err)
}
