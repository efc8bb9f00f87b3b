package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("RATE_LIMIT_POST", "")

	// An empty value is set, so the fallback must not kick in and parsing fails.
	_, err := Load()
	require.Error(t, err)

	t.Setenv("RATE_LIMIT_POST", "15s")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 15*time.Second, cfg.RateLimitPost)
	assert.Equal(t, 20, cfg.NotificationFetchLimit)
	assert.Equal(t, 10, cfg.TrendingLimit)
	assert.Contains(t, cfg.DSN(), "host=db.internal")
}

func TestLoadRejectsBadLimits(t *testing.T) {
	t.Setenv("NOTIFICATION_FETCH_LIMIT", "0")
	_, err := Load()
	assert.ErrorContains(t, err, "NOTIFICATION_FETCH_LIMIT")

	t.Setenv("NOTIFICATION_FETCH_LIMIT", "20")
	t.Setenv("TRENDING_LIMIT", "ten")
	_, err = Load()
	assert.ErrorContains(t, err, "TRENDING_LIMIT")
}
