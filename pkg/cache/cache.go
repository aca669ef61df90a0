// Package cache stores AI replies so that asking for the same mind map twice
// does not pay for a second request.
//
// [Cache] is a byte-oriented key/value store with per-entry TTL. Four
// backends exist:
//
//   - [FileCache]: one file per entry under a directory (the CLI default)
//   - [RedisCache]: a Redis server, shared by several viewer instances
//   - [MongoCache]: a MongoDB collection with a TTL index
//   - [NullCache]: stores nothing, for --no-cache and tests
//
// Keys are built by a [Keyer] so that every component hashes its inputs the
// same way, and [Observe] reports hits and misses to the observability hooks.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value store with expiring entries.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss
	// (nil, false, nil), not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Clearer is implemented by caches that can drop every entry.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Backend names accepted by Open.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Options selects and configures a backend for Open.
type Options struct {
	Backend string

	Dir string // file

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Open connects the backend named by opts.Backend. An empty backend means
// file.
func Open(ctx context.Context, opts Options) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch opts.Backend {
	case "", BackendFile:
		var fc *FileCache
		if fc, err = NewFileCache(opts.Dir); err == nil {
			c = fc
		}
	case BackendRedis:
		var rc *RedisCache
		rc, err = NewRedisCache(ctx, RedisConfig{Addr: opts.RedisAddr, Password: opts.RedisPassword, DB: opts.RedisDB})
		if err == nil {
			c = rc
		}
	case BackendMongo:
		var mc *MongoCache
		mc, err = NewMongoCache(ctx, MongoConfig{URI: opts.MongoURI, Database: opts.MongoDatabase, Collection: opts.MongoCollection})
		if err == nil {
			c = mc
		}
	case BackendNone:
		c = NewNullCache()
	default:
		err = &UnknownBackendError{Backend: opts.Backend}
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UnknownBackendError is returned by Open for an unsupported backend.
type UnknownBackendError struct{ Backend string }

func (e *UnknownBackendError) Error() string {
	return "cache: unknown backend " + e.Backend
}
