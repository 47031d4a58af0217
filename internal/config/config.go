package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server struct {
		GRPCAddr string `yaml:"grpc_addr"`
		HTTPAddr string `yaml:"http_addr"`
		APIToken string `yaml:"api_token"`
	} `yaml:"server"`
	Database struct {
		Driver     string `yaml:"driver"` // postgres or sqlite
		DSN        string `yaml:"dsn"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Prices struct {
		Provider          string        `yaml:"provider"` // twelvedata or yahoo
		APIKey            string        `yaml:"api_key"`
		BaseURL           string        `yaml:"base_url"`
		Freshness         time.Duration `yaml:"freshness"`
		RefreshCron       string        `yaml:"refresh_cron"`
		TrackedTickers    []string      `yaml:"tracked_tickers"`
		PopularLimit      int           `yaml:"popular_limit"`
		RequestsPerMinute int           `yaml:"requests_per_minute"`
	} `yaml:"prices"`
	Presentation struct {
		Currency     string  `yaml:"currency"`
		ExchangeRate float64 `yaml:"exchange_rate"`
		Language     string  `yaml:"language"`
	} `yaml:"presentation"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// Load reads an optional .env file and an optional YAML file, then applies
// environment variable overrides and defaults
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.APIToken = getEnv("API_TOKEN", c.Server.APIToken)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.DSN = getEnv("DB_CONN_STR", c.Database.DSN)
	c.Database.SQLitePath = getEnv("SQLITE_PATH", c.Database.SQLitePath)
	if c.Database.DSN == "" && os.Getenv("DB_HOST") != "" {
		c.Database.DSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_NAME", "dcaflow"),
		)
	}

	c.Prices.Provider = getEnv("PRICE_PROVIDER", c.Prices.Provider)
	c.Prices.APIKey = getEnv("TWELVEDATA_API_KEY", c.Prices.APIKey)
	c.Prices.RefreshCron = getEnv("REFRESH_CRON", c.Prices.RefreshCron)
	c.Prices.Freshness = getEnvAsDuration("PRICE_FRESHNESS", c.Prices.Freshness)
	c.Prices.RequestsPerMinute = getEnvAsInt("PRICE_REQUESTS_PER_MINUTE", c.Prices.RequestsPerMinute)
	if v := os.Getenv("TRACKED_TICKERS"); v != "" {
		c.Prices.TrackedTickers = splitList(v)
	}

	c.Presentation.Currency = getEnv("DISPLAY_CURRENCY", c.Presentation.Currency)
	c.Presentation.ExchangeRate = getEnvAsFloat("EXCHANGE_RATE", c.Presentation.ExchangeRate)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = getEnvAsBool("LOG_PRETTY", c.Log.Pretty)
}

func (c *Config) applyDefaults() {
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = ":8080"
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8081"
	}
	if c.Server.APIToken == "" {
		c.Server.APIToken = "dev-token"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/dcaflow.db"
	}
	if c.Prices.Provider == "" {
		c.Prices.Provider = "twelvedata"
	}
	if c.Prices.Freshness == 0 {
		c.Prices.Freshness = 18 * time.Hour
	}
	if c.Prices.RefreshCron == "" {
		c.Prices.RefreshCron = "0 30 22 * * 1-5"
	}
	if c.Prices.PopularLimit == 0 {
		c.Prices.PopularLimit = 10
	}
	if c.Prices.RequestsPerMinute == 0 {
		c.Prices.RequestsPerMinute = 8
	}
	if c.Presentation.Currency == "" {
		c.Presentation.Currency = "KRW"
	}
	if c.Presentation.ExchangeRate == 0 {
		c.Presentation.ExchangeRate = 1400
	}
	if c.Presentation.Language == "" {
		c.Presentation.Language = "ko"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for postgres")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return errors.New("database.sqlite_path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	switch c.Prices.Provider {
	case "twelvedata":
		if c.Prices.APIKey == "" {
			return errors.New("prices.api_key is required for twelvedata")
		}
	case "yahoo":
	default:
		return fmt.Errorf("unsupported prices.provider %q", c.Prices.Provider)
	}

	if c.Prices.Freshness < 0 {
		return errors.New("prices.freshness cannot be negative")
	}
	if c.Prices.RequestsPerMinute < 0 {
		return errors.New("prices.requests_per_minute cannot be negative")
	}
	if c.Presentation.ExchangeRate <= 0 {
		return errors.New("presentation.exchange_rate must be positive")
	}
	if c.Presentation.Language != "ko" && c.Presentation.Language != "en" {
		return fmt.Errorf("unsupported presentation.language %q", c.Presentation.Language)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
