// Package config provides unified configuration loading for the quotation engine.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the quotation engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	Oracle        OracleConfig        `yaml:"oracle"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Matcher       MatcherConfig       `yaml:"matcher"`
	Quote         QuoteConfig         `yaml:"quote"`
	Company       CompanyConfig       `yaml:"company"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	JournalMode  string `yaml:"journal_mode"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds rate-estimate cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// OracleConfig holds extraction oracle (LLM) settings.
type OracleConfig struct {
	APIKeyEnv       string        `yaml:"api_key_env"`
	Models          []string      `yaml:"models"` // tried in priority order
	MaxAttempts     int           `yaml:"max_attempts"`
	BackoffBase     time.Duration `yaml:"backoff_base"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	MaxRateQueryLen int           `yaml:"max_rate_query_len"`
}

// RateLimitConfig holds oracle admission budgets per identifier.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	PerHour   int `yaml:"per_hour"`
	PerDay    int `yaml:"per_day"`
}

// MatcherConfig holds fuzzy catalog matcher settings.
type MatcherConfig struct {
	ScoreThreshold     float64  `yaml:"score_threshold"`
	BrandBonus         float64  `yaml:"brand_bonus"`
	Brands             []string `yaml:"brands"`
	SpecUnits          []string `yaml:"spec_units"`
	StructuralKeywords []string `yaml:"structural_keywords"`
}

// QuoteConfig holds quotation calculation defaults.
type QuoteConfig struct {
	DiscountPercent float64 `yaml:"discount_percent"`
	GSTPercent      float64 `yaml:"gst_percent"`
}

// CompanyConfig holds the letterhead details rendered on exports.
type CompanyConfig struct {
	Name          string `yaml:"name"`
	Tagline       string `yaml:"tagline"`
	Services      string `yaml:"services"`
	Address       string `yaml:"address"`
	Phone         string `yaml:"phone"`
	Email         string `yaml:"email"`
	Website       string `yaml:"website"`
	GSTNumber     string `yaml:"gst_number"`
	Certification string `yaml:"certification"`
	BankName      string `yaml:"bank_name"`
	BankBranch    string `yaml:"bank_branch"`
	AccountNumber string `yaml:"account_number"`
	IFSCCode      string `yaml:"ifsc_code"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   10 << 20,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path:         "/tmp/quotation-engine.db",
				MaxOpenConns: 1,
				JournalMode:  "WAL",
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        24 * time.Hour,
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Oracle: OracleConfig{
			APIKeyEnv: "GEMINI_API_KEY",
			Models: []string{
				"gemini-2.5-flash",
				"gemini-2.0-flash-exp",
			},
			MaxAttempts:     2,
			BackoffBase:     time.Second,
			RequestTimeout:  90 * time.Second,
			MaxRateQueryLen: 500,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 2,
			PerHour:   10,
			PerDay:    50,
		},
		Matcher: MatcherConfig{
			ScoreThreshold: 0.25,
			BrandBonus:     0.3,
			Brands: []string{
				"agni", "kirloskar", "jindal", "polycab",
				"havells", "kartar", "lifeguard",
			},
			SpecUnits:          []string{"mm", "ltr", "lpm", "hp", "kva", "zone"},
			StructuralKeywords: []string{"section"},
		},
		Quote: QuoteConfig{
			DiscountPercent: 5,
			GSTPercent:      18,
		},
		Company: CompanyConfig{
			Name:          "City Fire Engineering",
			Tagline:       "Complete Fire Safety Solutions",
			Services:      "Fire Extinguisher Refilling | Hydrant Systems | Fire Alarms | AMC",
			Certification: "ISO 9001:2015 Certified Company",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if len(c.Oracle.Models) == 0 {
		return fmt.Errorf("at least one oracle model is required")
	}

	if c.RateLimit.PerMinute < 1 || c.RateLimit.PerHour < 1 || c.RateLimit.PerDay < 1 {
		return fmt.Errorf("rate limit budgets must be positive")
	}

	if c.Matcher.ScoreThreshold <= 0 || c.Matcher.ScoreThreshold >= 1 {
		return fmt.Errorf("matcher score threshold must be in (0, 1)")
	}

	return nil
}

// DatabaseDSN returns the appropriate database connection string.
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		dsn := c.Database.SQLite.Path
		if c.Database.SQLite.JournalMode != "" {
			dsn += "?_journal_mode=" + c.Database.SQLite.JournalMode
		}
		return dsn
	}
	return c.Database.Postgres.DSN
}

// OracleAPIKey resolves the oracle API key from the environment.
func (c *Config) OracleAPIKey() string {
	return os.Getenv(c.Oracle.APIKeyEnv)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Database.Driver = "sqlite"
			cfg.Database.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Database.Driver = "postgres"
			cfg.Database.Postgres.DSN = v
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("ORACLE_MODELS"); v != "" {
		cfg.Oracle.Models = strings.Split(v, ",")
	}

	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.PerMinute = n
		}
	}

	if v := os.Getenv("RATE_LIMIT_PER_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.PerHour = n
		}
	}

	if v := os.Getenv("RATE_LIMIT_PER_DAY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.PerDay = n
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
