// Package history persists chat messages and serves per-room scrollback.
package history

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/nextalk-server/domain/chat"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// DefaultLimit is the history depth used when a caller does not ask for one.
const DefaultLimit = 50

var (
	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown history backend")
	// ErrClosed is returned by stores used after Close.
	ErrClosed = errors.New("history store closed")
)

// Store is the append/query contract every backend implements.
//
// RecentByRoom returns at most limit of the newest messages in room, ordered
// oldest first. Messages with equal timestamps keep their append order.
type Store interface {
	Append(ctx context.Context, msg domain.Message) error
	RecentByRoom(ctx context.Context, room string, limit int) ([]domain.Message, error)
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend      string
	DefaultLimit int
	MaxPerRoom   int // memory and redis only; 0 keeps everything
	SQLitePath   string
	DatabaseURL  string
	RedisAddr    string
	RedisPrefix  string
}

// Option configures a Config.
type Option func(*Config)

// DefaultConfig returns an in-memory configuration.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendMemory,
		DefaultLimit: DefaultLimit,
		MaxPerRoom:   1000,
		SQLitePath:   "nextalk.db",
		RedisAddr:    "localhost:6379",
		RedisPrefix:  "nextalk:",
	}
}

// NewConfig applies opts over DefaultConfig.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithBackend selects the storage backend.
func WithBackend(name string) Option {
	return func(c *Config) { c.Backend = name }
}

// WithDefaultLimit sets the depth returned when callers pass limit <= 0.
func WithDefaultLimit(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.DefaultLimit = n
		}
	}
}

// WithSQLitePath sets the sqlite database file.
func WithSQLitePath(path string) Option {
	return func(c *Config) { c.SQLitePath = path }
}

// WithDatabaseURL sets the postgres connection string.
func WithDatabaseURL(url string) Option {
	return func(c *Config) { c.DatabaseURL = url }
}

// WithRedis sets the redis address and key prefix.
func WithRedis(addr, prefix string) Option {
	return func(c *Config) {
		c.RedisAddr = addr
		c.RedisPrefix = prefix
	}
}

// Open connects the configured backend and prepares its schema.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(cfg.MaxPerRoom), nil
	case BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case BackendPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case BackendRedis:
		return OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix, cfg.MaxPerRoom)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
