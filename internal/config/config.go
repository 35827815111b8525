// Package config loads datops settings from the environment. Every value has
// a default except the optional history database; Load validates the result
// and reports all problems at once.
package config

import (
	"strconv"
	"time"
)

// Config holds all settings. CLI flags override individual values per run.
type Config struct {
	Output   OutputConfig
	Encoding EncodingConfig
	Logging  LoggingConfig
	History  HistoryConfig
	Server   ServerConfig
	Limits   LimitsConfig
	Rate     RateLimitConfig
	Security SecurityConfig
}

// OutputConfig controls where results are written.
type OutputConfig struct {
	// Dir is the output directory; empty writes next to each input
	Dir string `env:"DATOPS_OUTPUT_DIR"`

	// Format is the default output format: csv, tsv, dat or xlsx (default: csv)
	Format string `env:"DATOPS_OUTPUT_FORMAT" default:"csv"`

	// Overwrite allows replacing existing output files (default: false)
	Overwrite bool `env:"DATOPS_OVERWRITE" default:"false"`
}

// EncodingConfig controls how inputs are decoded.
type EncodingConfig struct {
	// Name forces an encoding for every input; empty means detect per file
	Name string `env:"DATOPS_ENCODING"`

	// SniffBytes is how much of each file detection reads (default: 64 KiB)
	SniffBytes int `env:"DATOPS_SNIFF_BYTES" default:"65536"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// HistoryConfig holds the run history database settings. History is off
// when URL is empty.
type HistoryConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns int `env:"DB_MAX_CONNS" default:"4"`
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// Retention is how long runs are kept (default: 90 days)
	Retention time.Duration `env:"HISTORY_RETENTION" default:"2160h"`

	// PruneInterval is how often old runs are deleted in serve mode (default: 24h)
	PruneInterval time.Duration `env:"HISTORY_PRUNE_INTERVAL" default:"24h"`
}

// Enabled reports whether a history database is configured.
func (c HistoryConfig) Enabled() bool { return c.URL != "" }

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds a single API call, operations included (default: 10m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"10m"`

	// DataRoot is the directory API paths are resolved against (default: .)
	DataRoot string `env:"DATOPS_DATA_ROOT" default:"."`
}

// LimitsConfig bounds concurrent operations.
type LimitsConfig struct {
	// MaxConcurrent is the number of operations that may run at once (default: 2)
	MaxConcurrent int `env:"DATOPS_MAX_CONCURRENT" default:"2"`

	// MaxWait is how long a request waits for a free slot (default: 30s)
	MaxWait time.Duration `env:"DATOPS_MAX_WAIT" default:"30s"`
}

// RateLimitConfig holds per-IP request rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// APIKeys is a comma-separated list of accepted X-API-Key values
	APIKeys []string `env:"API_KEYS"`

	// RequireAPIKey rejects API requests without a valid key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are believed
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
