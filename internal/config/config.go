// Package config provides centralized configuration management for the dashboard.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Database DatabaseConfig
	Import   ImportConfig
	Table    TableConfig
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

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// BackendConfig holds settings for the payroll REST API this dashboard fronts.
type BackendConfig struct {
	// URL is the base URL of the payroll API (required)
	URL string `env:"BACKEND_URL" envAlt:"API_BASE_URL" required:"true"`

	// Timeout bounds a single backend request. Zero leaves requests unbounded,
	// so a hung request hangs until the transport gives up.
	Timeout time.Duration `env:"BACKEND_TIMEOUT" default:"0s"`

	// Token is a static bearer token used when no login has happened yet
	Token string `env:"BACKEND_TOKEN"`

	// TokenFile persists the bearer token between CLI runs
	TokenFile string `env:"BACKEND_TOKEN_FILE"`

	// Fanout bounds parallel per-employee fetches on aggregation screens (default: 4)
	Fanout int `env:"BACKEND_FANOUT" default:"4"`
}

// DatabaseConfig holds the optional import history database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty keeps history in memory.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds bulk JSON import settings.
type ImportConfig struct {
	// ChunkSize is the number of records sent per bulk request (default: 200)
	ChunkSize int `env:"IMPORT_CHUNK_SIZE" default:"200"`

	// MaxFileSize is the maximum accepted import file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of imports submitting at once (default: 3)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"3"`

	// MaxWaitTime is how long a confirmation waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// SessionTTL is how long an unconfirmed preview is kept (default: 30m)
	SessionTTL time.Duration `env:"IMPORT_SESSION_TTL" default:"30m"`

	// HistoryLimit is the number of history entries listed by default (default: 50)
	HistoryLimit int `env:"IMPORT_HISTORY_LIMIT" default:"50"`
}

// TableConfig holds defaults for the tabular views.
type TableConfig struct {
	// PageSizes is the comma-separated set of selectable page sizes
	PageSizes []string `env:"TABLE_PAGE_SIZES" default:"10,25,50,100"`

	// DefaultPageSize must be one of PageSizes (default: 10)
	DefaultPageSize int `env:"TABLE_DEFAULT_PAGE_SIZE" default:"10"`

	// Locale drives string collation when sorting (default: tr)
	Locale string `env:"TABLE_LOCALE" default:"tr"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for import endpoints (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enables X-API-Key authentication on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text, json or pretty (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// PageSizeValues returns the configured page sizes as integers.
// Entries that are not positive integers are skipped.
func (c *TableConfig) PageSizeValues() []int {
	sizes := make([]int, 0, len(c.PageSizes))
	for _, s := range c.PageSizes {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			continue
		}
		sizes = append(sizes, n)
	}
	return sizes
}
