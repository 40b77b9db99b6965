package cs4teachers

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SITE_NAME", "CS4HS")
	t.Setenv("SITE_URL", "https://cs4hs.example/")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("ADMIN_SESSION_SECRET", "secret")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("TIME_ZONE", "")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "CS4HS", cfg.Name)
	assert.Equal(t, "https://cs4hs.example", cfg.URL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, "Pacific/Auckland", cfg.TimeZone)
	assert.Equal(t, "media", cfg.UploadDir)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigBadDuration(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "CACHE_TTL")
}

func TestSiteConfigValidate(t *testing.T) {
	cfg := SiteConfig{}
	cfg.setDefaults()
	assert.ErrorContains(t, cfg.Validate(), "AdminPassword")

	cfg.AdminPassword = "pw"
	assert.ErrorContains(t, cfg.Validate(), "SessionSecret")

	cfg.SessionSecret = "s"
	cfg.TimeZone = "Mars/Olympus_Mons"
	assert.ErrorContains(t, cfg.Validate(), "time zone")

	cfg.TimeZone = "Pacific/Auckland"
	require.NoError(t, cfg.Validate())
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Pacific/Auckland", loc.String())
}

func TestEnvOr(t *testing.T) {
	t.Setenv("CS4T_TEST_VALUE", "")
	assert.Equal(t, "fallback", EnvOr("CS4T_TEST_VALUE", "fallback"))
	t.Setenv("CS4T_TEST_VALUE", "set")
	assert.Equal(t, "set", EnvOr("CS4T_TEST_VALUE", "fallback"))
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggingConfig{Level: "warn"}, &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Str("kind", "event").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"kind":"event"`)
	assert.Contains(t, buf.String(), `"message":"shown"`)
}
