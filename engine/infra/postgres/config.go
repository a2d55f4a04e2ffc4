package postgres

import (
	"time"

	"github.com/devopsblog/blog/pkg/config"
)

const (
	defaultMaxConns       = 20
	defaultIdleTimeout    = 30 * time.Second
	defaultConnectTimeout = 2 * time.Second
	defaultInitAttempts   = 5
	defaultInitDelay      = 3 * time.Second
	defaultHealthTimeout  = 2 * time.Second
)

// Config holds PostgreSQL connection and pool settings for the driver.
// When ConnString is empty, the DSN is built from the individual fields.
type Config struct {
	ConnString     string
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConns       int
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
	InitAttempts   int
	InitDelay      time.Duration
	// WatchInterval is the period of the background health check; zero
	// disables the watcher.
	WatchInterval time.Duration
	// WatchFailures consecutive failed checks are reported as a pool fault;
	// zero reports only connection-terminating errors.
	WatchFailures int
}

// ConfigFrom maps application database settings onto the driver config.
func ConfigFrom(db *config.DatabaseConfig) *Config {
	return &Config{
		ConnString:     db.ConnString,
		Host:           db.Host,
		Port:           db.Port,
		User:           db.User,
		Password:       db.Password.Value(),
		DBName:         db.DBName,
		SSLMode:        db.SSLMode,
		MaxConns:       db.MaxConns,
		IdleTimeout:    db.IdleTimeout,
		ConnectTimeout: db.ConnectTimeout,
		InitAttempts:   db.InitAttempts,
		InitDelay:      db.InitDelay,
		WatchInterval:  db.WatchInterval,
		WatchFailures:  db.WatchFailures,
	}
}

func (c *Config) dsn() string {
	if c.ConnString != "" {
		return c.ConnString
	}
	db := config.DatabaseConfig{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: config.SensitiveString(c.Password),
		DBName:   c.DBName,
		SSLMode:  c.SSLMode,
	}
	return db.DSN()
}

func (c *Config) initAttempts() int {
	if c.InitAttempts > 0 {
		return c.InitAttempts
	}
	return defaultInitAttempts
}

func (c *Config) initDelay() time.Duration {
	if c.InitDelay > 0 {
		return c.InitDelay
	}
	return defaultInitDelay
}
