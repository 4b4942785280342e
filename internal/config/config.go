// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Supported relational engines.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// defaultDBPassword is the development password; production must override it.
const defaultDBPassword = "eventgo"

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 4000).
	Port int

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Database holds relational store connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings for the response cache.
	Redis RedisConfig

	// HTTP holds cross-origin and rate limiting settings.
	HTTP HTTPConfig
}

// DatabaseConfig holds connection parameters for the entity store. Driver
// selects MariaDB/MySQL or an embedded SQLite file. For MariaDB, individual
// fields (Host, User, Password, Name) are read from separate env vars so
// container orchestrators can manage each independently. If DATABASE_URL is
// set, it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Driver is "mysql" (default) or "sqlite".
	Driver string

	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	User     string
	Password string
	Name     string

	// SQLitePath is the database file used when Driver is "sqlite".
	SQLitePath string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the connection string for the configured driver. For MySQL
// the DSN is built with the driver's Config.FormatDSN() to safely handle
// special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	if d.Driver == DriverSQLite {
		return SQLiteDSN(d.SQLitePath)
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	// Report matched rather than changed rows so an UPDATE that rewrites
	// identical values is not mistaken for a missing row.
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

// SQLiteDSN builds a modernc.org/sqlite DSN for the given file with foreign
// keys enforced on every pooled connection.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	// Empty disables the response cache.
	URL string

	// CacheTTL bounds how long a cached listing may be served.
	CacheTTL time.Duration
}

// Enabled reports whether a Redis URL was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// HTTPConfig holds settings for the HTTP middleware chain.
type HTTPConfig struct {
	// AllowedOrigins lists origins allowed to call the API cross-origin.
	AllowedOrigins []string

	// RateLimit is the per-IP request budget within RateLimitWindow.
	RateLimit       int
	RateLimitWindow time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 4000),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "eventgo"),
			Password:        getEnv("DB_PASSWORD", defaultDBPassword),
			Name:            getEnv("DB_NAME", "eventgo"),
			SQLitePath:      getEnv("SQLITE_PATH", "./eventgo.db"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},

		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),
		},

		HTTP: HTTPConfig{
			AllowedOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
			RateLimit:       getEnvInt("RATE_LIMIT", 300),
			RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}

	switch cfg.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return nil, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverMySQL, DriverSQLite, cfg.Database.Driver)
	}

	if cfg.IsProduction() && cfg.Database.Driver == DriverMySQL && cfg.Database.dsnOverride == "" {
		if cfg.Database.Password == defaultDBPassword {
			return nil, fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	if cfg.HTTP.RateLimit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT must be positive, got %d", cfg.HTTP.RateLimit)
	}
	if cfg.HTTP.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", cfg.HTTP.RateLimitWindow)
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction returns true for "production" or "prod", case-insensitively.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "5m") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated env var, dropping blank entries.
func getEnvList(key string, defaultVal []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
