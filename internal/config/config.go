package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const PROD_STRING = "prod"

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	AppEnv       string          `yaml:"app_env"`
	IsProduction bool            `yaml:"-"`
	ProdOrigins  string          `yaml:"prod_origins"`
	HTTPAddr     string          `yaml:"http_addr"`
	Storage      string          `yaml:"storage"`
	Database     DatabaseConfig  `yaml:"database"`
	Logging      LoggingConfig   `yaml:"logging"`
	MetricsAddr  string          `yaml:"metrics_addr"`
	Redis        RedisConfig     `yaml:"redis"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

type DatabaseConfig struct {
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateLimitConfig is a per-caller request budget. Requests == 0 disables limiting.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Load loads configuration from .env (optional), an optional YAML file named by
// CONFIG_FILE, and environment variables. Environment variables win.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		AppEnv:   "dev",
		HTTPAddr: ":8080",
		Storage:  StoragePostgres,
		Logging:  LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		RateLimit: RateLimitConfig{
			Window: time.Minute,
		},
	}
}

// loadFile overlays YAML values on top of the current config.
// ${VAR} references are expanded before parsing.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var err error

	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.ProdOrigins = getEnv("PROD_ORIGINS", c.ProdOrigins)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.Storage = strings.ToLower(getEnv("STORAGE", c.Storage))
	c.Database.DSN = getEnv("DB_DSN", c.Database.DSN)
	if c.Database.AutoMigrate, err = getEnvAsBool("DB_AUTO_MIGRATE", c.Database.AutoMigrate); err != nil {
		return err
	}

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
	c.Logging.Output = getEnv("LOG_OUTPUT", c.Logging.Output)
	c.Logging.FilePath = getEnv("LOG_FILE", c.Logging.FilePath)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)

	c.Redis.Address = getEnv("REDIS_ADDR", c.Redis.Address)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	if c.Redis.DB, err = getEnvAsInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}

	if c.RateLimit.Requests, err = getEnvAsInt("RATE_LIMIT_REQUESTS", c.RateLimit.Requests); err != nil {
		return err
	}
	if c.RateLimit.Window, err = getEnvAsDuration("RATE_LIMIT_WINDOW", c.RateLimit.Window); err != nil {
		return err
	}

	c.IsProduction = c.AppEnv == PROD_STRING
	return nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN is required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}

	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}
	return val, nil
}

// getEnvAsDuration parses values such as "30s" or "1m".
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	return val, nil
}
