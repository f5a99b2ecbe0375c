// Package store keeps conversation sessions between requests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/capitalize-ai/medassist/internal/conversation"
)

var (
	ErrNotFound         = errors.New("session not found")
	ErrAlreadyExists    = errors.New("session already exists")
	ErrVersionConflict  = errors.New("session version conflict")
	ErrInvalidConfig    = errors.New("invalid store configuration")
	ErrInvalidStoreType = errors.New("invalid store type")
)

// DefaultTTL is the idle lifetime of a session.
const DefaultTTL = 30 * time.Minute

// Store defines session storage operations. Implementations hand out
// independent copies; callers write back through Update.
type Store interface {
	// Create stores a new session with Version set to 1.
	Create(ctx context.Context, s *conversation.Session) error

	// Get returns ErrNotFound if the session does not exist or has expired.
	Get(ctx context.Context, id string) (*conversation.Session, error)

	// Update persists s if s.Version matches the stored version, then
	// increments s.Version and sets UpdatedAt.
	Update(ctx context.Context, s *conversation.Session) error

	Delete(ctx context.Context, id string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Type names a store backend.
type Type string

const (
	TypeMemory Type = "memory"
	TypeRedis  Type = "redis"
)

// Option configures a store.
type Option func(*options)

type options struct {
	redisClient *redis.Client
	ttl         time.Duration
	now         func() time.Time
}

// WithRedisClient sets the client for the Redis store.
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) {
		o.redisClient = client
	}
}

// WithTTL sets the idle lifetime of sessions.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a store of the given type.
func New(t Type, opts ...Option) (Store, error) {
	o := &options{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.ttl <= 0 {
		o.ttl = DefaultTTL
	}

	switch t {
	case TypeMemory, "":
		return newMemoryStore(o), nil
	case TypeRedis:
		if o.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return newRedisStore(o), nil
	default:
		return nil, ErrInvalidStoreType
	}
}
