package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 30, cfg.Dashboard.DailyTargetDays)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, "₹", cfg.Reports.CurrencySymbol)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("DASHBOARD_CACHE_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestValidateRequiresPasswordsAndProductionSecrets(t *testing.T) {
	cfg := &Config{Env: EnvProduction}
	cfg.Session.Secret = defaultSessionSecret
	cfg.Reports.SignedURLSecret = defaultReportsSecret

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SITE_PASSWORD_HASH")
	assert.Contains(t, err.Error(), "SESSION_SECRET")
	assert.Contains(t, err.Error(), "REPORTS_SIGNED_URL_SECRET")

	cfg.Session = SessionConfig{
		Secret:            strings.Repeat("s", 32),
		SitePasswordHash:  "$2a$10$site",
		AdminPasswordHash: "$2a$10$admin",
	}
	cfg.Reports.SignedURLSecret = "rotated"
	assert.NoError(t, cfg.Validate())
}

func TestLoadNormalisesAPIPrefix(t *testing.T) {
	t.Setenv("API_PREFIX", "api/v2/")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/api/v2", cfg.APIPrefix)
}
