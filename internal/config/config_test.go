package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 5*time.Minute, cfg.Refresh.RSIInterval.Std())
	assert.Equal(t, 60*time.Second, cfg.Refresh.StatsInterval.Std())
	assert.Equal(t, time.Duration(0), cfg.Refresh.MarketInterval.Std(), "market refresh off by default")
	assert.Equal(t, 14, cfg.RSI.Period)
	assert.Equal(t, 100, cfg.Universe.MaxAssets)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9000"
refresh:
  rsi_interval: "2m"
  market_interval: "15m"
rsi:
  period: 21
`), 0644))

	t.Setenv("RSIPULSE_LISTEN_ADDR", ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr, "env wins over file")
	assert.Equal(t, 2*time.Minute, cfg.Refresh.RSIInterval.Std())
	assert.Equal(t, 15*time.Minute, cfg.Refresh.MarketInterval.Std())
	assert.Equal(t, 21, cfg.RSI.Period)
}

func TestLoad_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("refresh:\n  rsi_interval: \"soon\"\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	cfg.RSI.Period = -1
	assert.Error(t, cfg.Validate())
}
