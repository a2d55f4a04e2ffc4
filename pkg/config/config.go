package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config is the root configuration for the blog service and its CLI.
type Config struct {
	Server     ServerConfig     `koanf:"server"     json:"server"`
	Database   DatabaseConfig   `koanf:"database"   json:"database"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"  json:"ratelimit"`
	Monitoring MonitoringConfig `koanf:"monitoring" json:"monitoring"`
	Runtime    RuntimeConfig    `koanf:"runtime"    json:"runtime"`
	Client     ClientConfig     `koanf:"client"     json:"client"`
	Service    ServiceConfig    `koanf:"service"    json:"service"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"             json:"host"             env:"SERVER_HOST"`
	Port            int           `koanf:"port"             json:"port"             env:"PORT"                 validate:"min=1,max=65535"`
	CORSEnabled     bool          `koanf:"cors_enabled"     json:"cors_enabled"     env:"CORS_ENABLED"`
	AllowedOrigins  []string      `koanf:"allowed_origins"  json:"allowed_origins"  env:"CORS_ALLOWED_ORIGINS"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     json:"read_timeout"     env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    json:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     json:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
}

// Address returns the host:port pair the listener binds to.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabaseConfig contains connection and pool settings for PostgreSQL.
type DatabaseConfig struct {
	ConnString     string          `koanf:"conn_string"     json:"conn_string"     env:"DB_CONN_STRING"`
	Host           string          `koanf:"host"            json:"host"            env:"DB_HOST"`
	Port           string          `koanf:"port"            json:"port"            env:"DB_PORT"`
	User           string          `koanf:"user"            json:"user"            env:"DB_USER"`
	Password       SensitiveString `koanf:"password"        json:"password"        env:"DB_PASSWORD"             sensitive:"true"`
	DBName         string          `koanf:"name"            json:"name"            env:"DB_NAME"`
	SSLMode        string          `koanf:"ssl_mode"        json:"ssl_mode"        env:"DB_SSL_MODE"             validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns       int             `koanf:"max_conns"       json:"max_conns"       env:"DB_POOL_MAX"             validate:"min=1"`
	IdleTimeout    time.Duration   `koanf:"idle_timeout"    json:"idle_timeout"    env:"DB_POOL_IDLE_TIMEOUT"`
	ConnectTimeout time.Duration   `koanf:"connect_timeout" json:"connect_timeout" env:"DB_POOL_CONNECT_TIMEOUT"`
	InitAttempts   int             `koanf:"init_attempts"   json:"init_attempts"   env:"DB_INIT_ATTEMPTS"        validate:"min=1"`
	InitDelay      time.Duration   `koanf:"init_delay"      json:"init_delay"      env:"DB_INIT_DELAY"`
	WatchInterval  time.Duration   `koanf:"watch_interval"  json:"watch_interval"  env:"DB_WATCH_INTERVAL"`
	WatchFailures  int             `koanf:"watch_failures"  json:"watch_failures"  env:"DB_WATCH_FAILURES"       validate:"min=0"`
}

// DSN returns the configured connection string, or builds a postgres URL from
// the individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnString != "" {
		return c.ConnString
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.DBName,
	}
	if c.Password.Value() != "" {
		u.User = url.UserPassword(c.User, c.Password.Value())
	} else if c.User != "" {
		u.User = url.User(c.User)
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// RateLimitConfig controls the per-client request limit on the API routes.
// A zero Limit disables rate limiting. Counters live in process memory unless
// RedisURL points at a shared Redis.
type RateLimitConfig struct {
	Limit    int64           `koanf:"limit"     json:"limit"     env:"RATE_LIMIT"`
	Period   time.Duration   `koanf:"period"    json:"period"    env:"RATE_LIMIT_PERIOD"`
	RedisURL SensitiveString `koanf:"redis_url" json:"redis_url" env:"RATE_LIMIT_REDIS_URL" sensitive:"true"`
}

// MonitoringConfig controls the metrics exposition endpoint.
type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled" env:"MONITORING_ENABLED"`
	Path    string `koanf:"path"    json:"path"    env:"MONITORING_PATH"    validate:"metrics_path"`
}

// RuntimeConfig contains process behavior settings.
type RuntimeConfig struct {
	Environment string `koanf:"environment" json:"environment" env:"APP_ENV"   validate:"oneof=development test staging production"`
	LogLevel    string `koanf:"log_level"   json:"log_level"   env:"LOG_LEVEL" validate:"oneof=debug info warn error disabled"`
	LogJSON     bool   `koanf:"log_json"    json:"log_json"    env:"LOG_JSON"`
}

// ClientConfig configures the API client used by the posts commands.
type ClientConfig struct {
	BaseURL string        `koanf:"base_url" json:"base_url" env:"BLOG_API_URL"     validate:"required,url"`
	Timeout time.Duration `koanf:"timeout"  json:"timeout"  env:"BLOG_API_TIMEOUT"`
}

// ServiceConfig identifies the service in health responses.
type ServiceConfig struct {
	Name    string `koanf:"name"    json:"name"    env:"SERVICE_NAME"    validate:"required"`
	Version string `koanf:"version" json:"version" env:"SERVICE_VERSION"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3001,
			CORSEnabled:     true,
			AllowedOrigins:  []string{"http://localhost:3000"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "postgres",
			DBName:         "blog",
			SSLMode:        "disable",
			MaxConns:       20,
			IdleTimeout:    30 * time.Second,
			ConnectTimeout: 2 * time.Second,
			InitAttempts:   5,
			InitDelay:      3 * time.Second,
			WatchInterval:  10 * time.Second,
			WatchFailures:  3,
		},
		RateLimit: RateLimitConfig{
			Limit:  0,
			Period: time.Minute,
		},
		Monitoring: MonitoringConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Runtime: RuntimeConfig{
			Environment: "development",
			LogLevel:    "info",
		},
		Client: ClientConfig{
			BaseURL: "http://localhost:3001",
			Timeout: 10 * time.Second,
		},
		Service: ServiceConfig{
			Name:    "personal-blog-backend",
			Version: "1.0.0",
		},
	}
}

// Service loads and validates configuration.
type Service interface {
	Load(ctx context.Context, sources ...Source) (*Config, error)
	Validate(config *Config) error
	GetSource(key string) SourceType
}

// SensitiveString holds a secret that must never be printed or serialized.
type SensitiveString string

const redacted = "[REDACTED]"

func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// Value returns the raw secret.
func (s SensitiveString) Value() string {
	return string(s)
}

func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s SensitiveString) GoString() string {
	return fmt.Sprintf("SensitiveString(%q)", s.String())
}
