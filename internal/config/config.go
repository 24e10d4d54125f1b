// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Identity IdentityConfig
	Upload   UploadConfig
	Cache    CacheConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 3000)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"3000"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// APIConfig points at the data-cleaning backend.
type APIConfig struct {
	// BaseURL is the backend root, e.g. http://localhost:8000
	BaseURL string `env:"API_BASE_URL" envAlt:"NEXT_PUBLIC_API_URL" default:"http://localhost:8000"`

	// Timeout bounds a single backend call; 0 leaves the transport default.
	Timeout time.Duration `env:"API_TIMEOUT" default:"0s"`
}

// IdentityConfig points at the hosted identity service.
type IdentityConfig struct {
	// URL is the identity service root (required)
	URL string `env:"IDENTITY_URL" envAlt:"SUPABASE_URL" required:"true"`

	// AnonKey is the public project key sent as the apikey header
	AnonKey string `env:"IDENTITY_ANON_KEY" envAlt:"SUPABASE_ANON_KEY"`
}

// UploadConfig holds upload settings.
type UploadConfig struct {
	// MaxFileSize is the largest accepted file (default: 10MiB)
	MaxFileSize ByteSize `env:"UPLOAD_MAX_FILE_SIZE" default:"10MiB"`

	// MaxConcurrent is the maximum number of parallel uploads to the backend (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an upload slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Retention is how long a finished upload stays visible to progress subscribers (default: 5m)
	Retention time.Duration `env:"UPLOAD_RETENTION" default:"5m"`
}

// CacheConfig selects the preview cache backend.
type CacheConfig struct {
	// Backend is one of memory, redis, postgres (default: memory)
	Backend string `env:"CACHE_BACKEND" default:"memory"`

	// RedisURL is used when Backend is redis
	RedisURL string `env:"CACHE_REDIS_URL" envAlt:"REDIS_URL"`

	// DatabaseURL is used when Backend is postgres
	DatabaseURL string `env:"CACHE_DATABASE_URL" envAlt:"DATABASE_URL"`

	// TTL expires entries; 0 keeps them until overwritten (default: 0)
	TTL time.Duration `env:"CACHE_TTL" default:"0s"`
}

// SessionConfig holds browser session cookie settings.
type SessionConfig struct {
	// CookieName names the session cookie (default: dc_session)
	CookieName string `env:"SESSION_COOKIE_NAME" default:"dc_session"`

	// TTL is how long an idle session is kept (default: 12h)
	TTL time.Duration `env:"SESSION_TTL" default:"12h"`

	// Secure marks the cookie Secure (default: false)
	Secure bool `env:"SESSION_SECURE_COOKIE" default:"false"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// File, when set, also writes logs to a rotated file
	File string `env:"LOG_FILE"`
}

// ByteSize is a size in bytes read from human units ("10MB", "512KiB", "1048576").
// KB, MB, GB and TB are binary units, so "10MB" is 10 MiB.
type ByteSize int64

// Int64 returns the size as a plain int64.
func (b ByteSize) Int64() int64 { return int64(b) }

func (b ByteSize) String() string { return humanize.IBytes(uint64(b)) }

func parseByteSize(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	if u := strings.ToUpper(s); len(u) > 2 && strings.HasSuffix(u, "B") && strings.ContainsRune("KMGT", rune(u[len(u)-2])) {
		s = s[:len(s)-1] + "iB"
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return ByteSize(n), nil
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
