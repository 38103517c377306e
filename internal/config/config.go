package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const envPrefix = "LEDGER"

// Config holds the console settings. Every key can be overridden with a
// LEDGER_ prefixed environment variable (LEDGER_API_URL, LEDGER_POLL_INTERVAL, ...).
type Config struct {
	APIURL         string        `mapstructure:"api_url"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	StaleTime      time.Duration `mapstructure:"stale_time"`
	ReadRetries    int           `mapstructure:"read_retries"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Port and Env drive the mock ledger server.
	Port           string `mapstructure:"server_port"`
	Env            string `mapstructure:"environment"`
	OpeningBalance string `mapstructure:"opening_balance"`

	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://localhost:8080/api/v1")
	v.SetDefault("poll_interval", 5*time.Second)
	v.SetDefault("stale_time", 2*time.Second)
	v.SetDefault("read_retries", 3)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("server_port", "8080")
	v.SetDefault("environment", "development")
	v.SetDefault("opening_balance", "0")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
}

// Load reads defaults, an optional TOML file named by LEDGER_CONFIG and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the console cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url must be an absolute http(s) URL, got %q", c.APIURL)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.StaleTime < 0 {
		return fmt.Errorf("stale_time must not be negative")
	}
	if c.ReadRetries < 1 {
		return fmt.Errorf("read_retries must be at least 1")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if _, err := c.Opening(); err != nil {
		return err
	}
	return nil
}

// Opening parses the mock ledger's per-account opening balance.
func (c *Config) Opening() (decimal.Decimal, error) {
	if c.OpeningBalance == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(c.OpeningBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("opening_balance: %w", err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("opening_balance must not be negative")
	}
	return d, nil
}

// Level maps LogLevel to a slog level. Unknown names mean info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
