package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BASE_CURRENCY", "")
	cfg := FromEnv()
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "default", cfg.DefaultUserID)
	require.Equal(t, 5*time.Minute, cfg.MovementCacheTTL)
	require.Equal(t, 9, cfg.MarketOpenHour)
	require.Equal(t, 17, cfg.MarketCloseHour)
	require.True(t, cfg.CaptureEnabled)
	require.False(t, cfg.AuthEnabled())
	require.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.AllowedOrigins)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("BASE_CURRENCY", "usd")
	t.Setenv("MOVEMENT_CACHE_TTL", "30s")
	t.Setenv("CAPTURE_ENABLED", "false")
	t.Setenv("MARKET_OPEN_HOUR", "not-a-number")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	cfg := FromEnv()
	require.Equal(t, "USD", cfg.BaseCurrency)
	require.Equal(t, 30*time.Second, cfg.MovementCacheTTL)
	require.False(t, cfg.CaptureEnabled)
	require.Equal(t, 9, cfg.MarketOpenHour)
	require.True(t, cfg.AuthEnabled())
}

func TestShortJWTSecretDisablesAuth(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")
	require.False(t, FromEnv().AuthEnabled())
}
