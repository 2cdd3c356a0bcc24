package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useConfigFile(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("CONFIG_FILE", path)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := loadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.Backend.BaseURL)
	assert.Equal(t, 60, cfg.Polling.RefreshInterval)
	assert.Equal(t, "history", cfg.Chart.Mode)
	assert.Equal(t, 20, cfg.Chart.Capacity)
	assert.Equal(t, "1h", cfg.Chart.Range)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.MongoDB.Enabled)
	assert.Equal(t, 1500*time.Millisecond, cfg.ScanMinLoadingDuration())
	assert.Equal(t, 3*time.Second, cfg.NotificationTTLDuration())
}

func TestLoadConfig_Layering(t *testing.T) {
	// Setup
	useConfigFile(t, `{
		"server": {"port": 9000},
		"backend": {"base_url": "http://file-backend:5000/"},
		"polling": {"refresh_interval_seconds": 45},
		"chart": {"mode": "rolling"}
	}`)
	t.Setenv("REFRESH_INTERVAL", "90")

	// Execute
	cfg, err := loadConfig([]string{"-backend", "http://flag-backend:5000"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "http://flag-backend:5000", cfg.Backend.BaseURL)
	assert.Equal(t, 90, cfg.Polling.RefreshInterval)
	assert.Equal(t, "rolling", cfg.Chart.Mode)
	assert.Equal(t, 90*time.Second, cfg.RefreshIntervalDuration())
}

func TestLoadConfig_TrimsTrailingSlash(t *testing.T) {
	useConfigFile(t, `{"backend": {"base_url": "http://router.local/"}}`)

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://router.local", cfg.Backend.BaseURL)
}

func TestLoadConfig_RejectsShortInterval(t *testing.T) {
	useConfigFile(t, `{"polling": {"refresh_interval_seconds": 10}}`)

	_, err := loadConfig(nil)
	assert.Error(t, err)
}

func TestLoadConfig_RejectsUnknownChartMode(t *testing.T) {
	useConfigFile(t, `{"chart": {"mode": "bars"}}`)

	_, err := loadConfig(nil)
	assert.Error(t, err)
}

func TestLoadConfig_RejectsUnknownRange(t *testing.T) {
	useConfigFile(t, `{}`)
	t.Setenv("CHART_RANGE", "2h")

	_, err := loadConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2h")
}

func TestLoadConfig_AcceptsEveryTrafficRange(t *testing.T) {
	for _, r := range []string{"1h", "6h", "24h", "7d"} {
		t.Run(r, func(t *testing.T) {
			useConfigFile(t, `{"chart": {"range": "`+r+`"}}`)

			cfg, err := loadConfig(nil)
			require.NoError(t, err)
			assert.Equal(t, r, cfg.Chart.Range)
		})
	}
}

func TestLoadConfig_BadJSON(t *testing.T) {
	useConfigFile(t, `{not json`)

	_, err := loadConfig(nil)
	assert.Error(t, err)
}
