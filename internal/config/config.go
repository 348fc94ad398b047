// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Ingest     IngestConfig
	Conversion ConversionConfig
	Auth       AuthConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
//
// URL wins when set. Otherwise the DSN is assembled from the POSTGRES_* parts,
// which is how container deployments usually hand credentials over.
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	User     string `env:"POSTGRES_USER"`
	Password string `env:"POSTGRES_PASSWORD"`
	Host     string `env:"POSTGRES_HOST" default:"localhost"`
	Port     int    `env:"POSTGRES_PORT" default:"5432"`
	Name     string `env:"POSTGRES_DB"`
	SSLMode  string `env:"POSTGRES_SSLMODE" default:"disable"`

	// PoolSize is the number of connections kept for steady load (default: 5)
	PoolSize int `env:"DB_POOL_SIZE" default:"5"`

	// MaxOverflow is how many extra connections may be opened under burst (default: 10)
	MaxOverflow int `env:"DB_MAX_OVERFLOW" default:"10"`

	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// HealthCheckPeriod controls pool pre-ping of idle connections (default: 1m)
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// IngestConfig holds settings for the periodic listing import.
type IngestConfig struct {
	Enabled      bool   `env:"INGEST_ENABLED" default:"true"`
	DataDir      string `env:"DATA_DIR" default:"data"`
	ProcessedDir string `env:"PROCESSED_DIR" default:"data/processed"`
	ErroredDir   string `env:"ERRORED_DIR" default:"data/errored"`

	// Interval is the fixed period between runs (default: 1m)
	Interval time.Duration `env:"INGEST_INTERVAL" default:"1m"`

	// RunOnStart triggers a run as soon as the scheduler starts (default: true)
	RunOnStart bool `env:"INGEST_RUN_ON_START" default:"true"`

	// MaxFileSize rejects larger source files (default: 100MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"104857600"`

	// Reference rows every imported building is attached to.
	OfferName      string `env:"INGEST_OFFER_NAME" default:"for sale"`
	EstateTypeName string `env:"INGEST_ESTATE_TYPE" default:"house"`
	CityName       string `env:"INGEST_CITY" default:"Unknown"`
	CityPartName   string `env:"INGEST_CITY_PART" default:"Unknown"`
}

// ConversionConfig holds unit and currency rates applied during import.
type ConversionConfig struct {
	// CurrencyRate is target currency units per USD (default: 0.90)
	CurrencyRate float64 `env:"NEURO_PER_USD" default:"0.90"`

	SqmPerAcre float64 `env:"SQM_PER_ACRE" default:"4047.0"`
	SqmPerSqft float64 `env:"SQM_PER_SQFT" default:"0.092903"`
}

// AuthConfig holds login and token settings.
type AuthConfig struct {
	Username string `env:"AUTH_USERNAME" default:"rbt"`

	// PasswordHash is a bcrypt hash; takes precedence over Password.
	PasswordHash string `env:"AUTH_PASSWORD_HASH"`
	Password     string `env:"AUTH_PASSWORD"`

	JWTSecret string        `env:"JWT_SECRET_KEY" required:"true"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" default:"1h"`

	// Required enforces bearer tokens on write routes (default: false)
	Required bool `env:"AUTH_REQUIRED" default:"false"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// LoginLimit is requests per minute for the login endpoint (default: 10)
	LoginLimit int `env:"RATE_LIMIT_LOGIN" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// CORSAllowedOrigins is a comma-separated origin allow list (empty disables CORS)
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// Color enables ANSI colors for the text format (default: false)
	Color bool `env:"LOG_COLOR" default:"false"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// MaxConns is the hard cap on pool connections.
func (c *DatabaseConfig) MaxConns() int {
	return c.PoolSize + c.MaxOverflow
}
