package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del backtester.
type Config struct {
	Backtest BacktestConfig `yaml:"backtest"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// BacktestConfig controla la simulación.
type BacktestConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
	FeeRate        float64 `yaml:"fee_rate"` // fracción del notional por trade
	Days           int     `yaml:"days"`     // ventana del histórico hacia atrás
	Strategy       string  `yaml:"strategy"` // estrategia por defecto
}

// APIConfig contiene las credenciales de la API de datos.
// Las klines son públicas; las keys solo suben los rate limits.
type APIConfig struct {
	BinanceKey    string `yaml:"binance_key"`
	BinanceSecret string `yaml:"binance_secret"`
}

// StorageConfig controla dónde se persisten velas y runs.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Las variables de entorno sobreescriben el YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Window devuelve el rango [from, to] del backtest, alineado a la hora.
func (c *Config) Window() (from, to time.Time) {
	to = time.Now().UTC().Truncate(time.Hour)
	from = to.Add(-time.Duration(c.Backtest.Days) * 24 * time.Hour)
	return from, to
}

// applyEnvOverrides sobreescribe valores con variables de entorno.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.API.BinanceKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.API.BinanceSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Backtest.InitialCapital <= 0 {
		cfg.Backtest.InitialCapital = 10000
	}
	if cfg.Backtest.FeeRate <= 0 {
		cfg.Backtest.FeeRate = 0.001 // 0.1%, las reglas del simulador
	}
	if cfg.Backtest.Days <= 0 {
		cfg.Backtest.Days = 180
	}
	if cfg.Backtest.Strategy == "" {
		cfg.Backtest.Strategy = "pairs"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "pairtrader.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
