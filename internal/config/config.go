// Package config loads service configuration from environment variables.
// Defaults are applied for unset values and everything is validated on
// startup so a bad deployment fails before it serves traffic.
package config

import (
	"strconv"
	"time"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds every request except imports (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig selects the entity store.
type StoreConfig struct {
	// Backend is memory or postgres (default: memory)
	Backend string `env:"STORE_BACKEND" default:"memory"`
}

// DatabaseConfig holds PostgreSQL settings. Only used by the postgres backend.
type DatabaseConfig struct {
	// URL is the connection string. Supports DATABASE_URL and DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum accepted upload in bytes (default: 32MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"33554432"`

	// MaxConcurrent is the number of batches that may run at once (default: 5)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"5"`

	// MaxWait is how long a batch waits for a slot (default: 30s)
	MaxWait time.Duration `env:"IMPORT_MAX_WAIT" default:"30s"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for import endpoints (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds credential and proxy settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// forwarding headers are honored.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// AuthTokens seeds the token set, comma-separated integers.
	AuthTokens []int64 `env:"AUTH_TOKENS"`

	// AuthTokensFile is a YAML file with a tokens list, merged with AuthTokens.
	AuthTokensFile string `env:"AUTH_TOKENS_FILE"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
