package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all application configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`

	Providers struct {
		CoinGeckoBaseURL string  `yaml:"coingecko_base_url"`
		BinanceBaseURL   string  `yaml:"binance_base_url"`
		StreamURL        string  `yaml:"stream_url"`
		BinanceRPS       float64 `yaml:"binance_rps"`
	} `yaml:"providers"`

	Refresh struct {
		RSIInterval    Duration `yaml:"rsi_interval"`
		StatsInterval  Duration `yaml:"stats_interval"`
		MarketInterval Duration `yaml:"market_interval"` // zero disables
	} `yaml:"refresh"`

	RSI struct {
		Period int `yaml:"period"`
	} `yaml:"rsi"`

	Universe struct {
		MaxAssets int `yaml:"max_assets"`
	} `yaml:"universe"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is fine; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("RSIPULSE_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("RSIPULSE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("COINGECKO_BASE_URL"); v != "" {
		cfg.Providers.CoinGeckoBaseURL = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		cfg.Providers.BinanceBaseURL = v
	}
	if v := os.Getenv("STREAM_URL"); v != "" {
		cfg.Providers.StreamURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("RSI_PERIOD"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.RSI.Period = p
		}
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Providers.BinanceRPS == 0 {
		cfg.Providers.BinanceRPS = 15
	}
	if cfg.Refresh.RSIInterval == 0 {
		cfg.Refresh.RSIInterval = Duration(5 * time.Minute)
	}
	if cfg.Refresh.StatsInterval == 0 {
		cfg.Refresh.StatsInterval = Duration(60 * time.Second)
	}
	if cfg.RSI.Period == 0 {
		cfg.RSI.Period = 14
	}
	if cfg.Universe.MaxAssets == 0 {
		cfg.Universe.MaxAssets = 100
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.RSI.Period < 1 {
		return fmt.Errorf("rsi.period must be positive")
	}
	if c.Universe.MaxAssets < 1 {
		return fmt.Errorf("universe.max_assets must be positive")
	}
	if c.Refresh.RSIInterval <= 0 {
		return fmt.Errorf("refresh.rsi_interval must be positive")
	}
	if c.Refresh.StatsInterval <= 0 {
		return fmt.Errorf("refresh.stats_interval must be positive")
	}
	if c.Providers.BinanceRPS <= 0 {
		return fmt.Errorf("providers.binance_rps must be positive")
	}
	return nil
}
