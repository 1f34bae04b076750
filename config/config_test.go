package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
backtest:
  initial_capital: 5000
  fee_rate: 0.002
  days: 90
  strategy: crossover
storage:
  dsn: test.db
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, 0.002, cfg.Backtest.FeeRate)
	assert.Equal(t, 90, cfg.Backtest.Days)
	assert.Equal(t, "crossover", cfg.Backtest.Strategy)
	assert.Equal(t, "test.db", cfg.Storage.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "backtest: {}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, 0.001, cfg.Backtest.FeeRate)
	assert.Equal(t, 180, cfg.Backtest.Days)
	assert.Equal(t, "pairs", cfg.Backtest.Strategy)
	assert.Equal(t, "pairtrader.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "env-key")
	t.Setenv("LOG_LEVEL", "warn")

	path := writeConfig(t, `
api:
  binance_key: yaml-key
log:
  level: info
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.API.BinanceKey)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "backtest: [not a map\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestWindow(t *testing.T) {
	cfg := &Config{Backtest: BacktestConfig{Days: 30}}

	from, to := cfg.Window()
	assert.Equal(t, 0, to.Minute())
	assert.Equal(t, 0, to.Second())
	assert.Equal(t, 30*24*time.Hour, to.Sub(from))
}
