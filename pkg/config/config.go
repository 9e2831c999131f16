package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seankirtman/buy-the-dip-tracker/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Providers struct {
		AlphaVantage struct {
			APIKey    string        `yaml:"api_key"`
			BaseURL   string        `yaml:"base_url"`
			Timeout   time.Duration `yaml:"timeout"`
			PerMinute int           `yaml:"per_minute"`
			PerDay    int           `yaml:"per_day"`
		} `yaml:"alphavantage"`
		Stooq struct {
			BaseURL   string        `yaml:"base_url"`
			Timeout   time.Duration `yaml:"timeout"`
			PerMinute int           `yaml:"per_minute"`
			PerDay    int           `yaml:"per_day"`
		} `yaml:"stooq"`
		Finnhub struct {
			APIKey    string        `yaml:"api_key"`
			BaseURL   string        `yaml:"base_url"`
			Timeout   time.Duration `yaml:"timeout"`
			PerMinute int           `yaml:"per_minute"`
			PerDay    int           `yaml:"per_day"`
		} `yaml:"finnhub"`
	} `yaml:"providers"`
	Pipeline struct {
		Benchmark       string        `yaml:"benchmark"`
		DailyWindow     int           `yaml:"daily_window"`
		DailyZ          float64       `yaml:"daily_z"`
		WeeklyWindow    int           `yaml:"weekly_window"`
		WeeklyZ         float64       `yaml:"weekly_z"`
		TopDaily        int           `yaml:"top_daily"`
		TopWeekly       int           `yaml:"top_weekly"`
		MinFallbackBars int           `yaml:"min_fallback_bars"`
		NewsTTL         time.Duration `yaml:"news_ttl"`
		EventsTTL       time.Duration `yaml:"events_ttl"`
	} `yaml:"pipeline"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Providers.Finnhub.APIKey = v
	}
	if v := os.Getenv("BENCHMARK"); v != "" {
		c.Pipeline.Benchmark = v
	}
	c.Server.Port = util.ParseIntDefault(os.Getenv("PORT"), c.Server.Port)
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Providers.AlphaVantage.BaseURL == "" {
		c.Providers.AlphaVantage.BaseURL = "https://www.alphavantage.co"
	}
	if c.Providers.Stooq.BaseURL == "" {
		c.Providers.Stooq.BaseURL = "https://stooq.com"
	}
	if c.Providers.Finnhub.BaseURL == "" {
		c.Providers.Finnhub.BaseURL = "https://finnhub.io/api/v1"
	}
	if c.Providers.AlphaVantage.PerMinute == 0 {
		c.Providers.AlphaVantage.PerMinute = 5
	}
	if c.Providers.AlphaVantage.PerDay == 0 {
		c.Providers.AlphaVantage.PerDay = 500
	}
	if c.Providers.Stooq.PerMinute == 0 {
		c.Providers.Stooq.PerMinute = 30
	}
	if c.Providers.Stooq.PerDay == 0 {
		c.Providers.Stooq.PerDay = 5000
	}
	if c.Providers.Finnhub.PerMinute == 0 {
		c.Providers.Finnhub.PerMinute = 30
	}
	if c.Providers.Finnhub.PerDay == 0 {
		c.Providers.Finnhub.PerDay = 1000
	}
	if c.Pipeline.Benchmark == "" {
		c.Pipeline.Benchmark = "SPY"
	}
	if c.Pipeline.DailyWindow == 0 {
		c.Pipeline.DailyWindow = 40
	}
	if c.Pipeline.DailyZ == 0 {
		c.Pipeline.DailyZ = 1.9
	}
	if c.Pipeline.WeeklyWindow == 0 {
		c.Pipeline.WeeklyWindow = 20
	}
	if c.Pipeline.WeeklyZ == 0 {
		c.Pipeline.WeeklyZ = 1.7
	}
	if c.Pipeline.TopDaily == 0 {
		c.Pipeline.TopDaily = 8
	}
	if c.Pipeline.TopWeekly == 0 {
		c.Pipeline.TopWeekly = 5
	}
	if c.Pipeline.MinFallbackBars == 0 {
		c.Pipeline.MinFallbackBars = 50
	}
	if c.Pipeline.NewsTTL == 0 {
		c.Pipeline.NewsTTL = 6 * time.Hour
	}
	if c.Pipeline.EventsTTL == 0 {
		c.Pipeline.EventsTTL = 24 * time.Hour
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Providers.AlphaVantage.APIKey == "" && os.Getenv("ALPHAVANTAGE_API_KEY") == "" {
		return fmt.Errorf("providers.alphavantage.api_key is required")
	}
	if c.Pipeline.DailyWindow < 2 || c.Pipeline.WeeklyWindow < 2 {
		return fmt.Errorf("pipeline windows must be >= 2")
	}
	if c.Pipeline.DailyZ <= 0 || c.Pipeline.WeeklyZ <= 0 {
		return fmt.Errorf("pipeline z thresholds must be positive")
	}
	return nil
}
