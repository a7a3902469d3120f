package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Dashboard DashboardConfig
	Logger    LoggerConfig
	Security  SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig selects the order feed. Source "sql" queries DSN through
// Driver; source "csv" reads an exported CSVFile instead.
type DatabaseConfig struct {
	Source       string
	Driver       string
	DSN          string `json:"-"`
	CSVFile      string
	QueryTimeout time.Duration
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

// LogValue keeps the DSN, which may carry credentials, out of the logs.
func (d DatabaseConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", d.Source),
		slog.String("driver", d.Driver),
		slog.String("csv_file", d.CSVFile),
		slog.Duration("query_timeout", d.QueryTimeout),
		slog.Int("max_open_conns", d.MaxOpenConns),
		slog.Duration("max_idle_time", d.MaxIdleTime),
	)
}

type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

type DashboardConfig struct {
	DedupeOrderLines bool
	DetailRows       int
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Source:       getEnvString("DATA_SOURCE", "csv"),
			Driver:       getEnvString("DB_DRIVER", "sqlserver"),
			DSN:          getEnvString("DB_DSN", ""),
			CSVFile:      getEnvString("CSV_FILE", "data.csv"),
			QueryTimeout: getEnvDuration("DB_QUERY_TIMEOUT", 30*time.Second),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 4),
			MaxIdleTime:  getEnvDuration("DB_MAX_IDLE_TIME", 5*time.Minute),
		},
		Cache: CacheConfig{
			TTL:        getEnvDuration("CACHE_TTL", 30*time.Minute),
			MaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 4),
		},
		Dashboard: DashboardConfig{
			DedupeOrderLines: getEnvBool("DASHBOARD_DEDUPE_ORDER_LINES", false),
			DetailRows:       getEnvInt("DASHBOARD_DETAIL_ROWS", 200),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	switch c.Database.Source {
	case "sql":
		validDrivers := []string{"sqlserver", "mysql"}
		if !contains(validDrivers, c.Database.Driver) {
			return fmt.Errorf("invalid database driver %q, must be one of: %s", c.Database.Driver, strings.Join(validDrivers, ", "))
		}
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN cannot be empty")
		}
	case "csv":
		if c.Database.CSVFile == "" {
			return fmt.Errorf("CSV file path cannot be empty")
		}
	default:
		return fmt.Errorf("invalid data source %q, must be one of: sql, csv", c.Database.Source)
	}

	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("database query timeout must be positive")
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database max open connections must be positive")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max entries must be positive")
	}

	if c.Dashboard.DetailRows < 0 {
		return fmt.Errorf("dashboard detail rows cannot be negative")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	return slices.Contains(slice, item)
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
