// Package cache provides byte-oriented caches for backend responses and
// computed layouts.
//
// # Implementations
//
//   - [FileCache]: one JSON envelope per key under a directory, for the CLI
//   - [RedisCache]: shared cache for servers, backed by go-redis
//   - [NullCache]: never stores anything, for --no-cache and tests
//
// # Keys
//
// A [Keyer] builds keys so that every component hashes its inputs the same
// way. Layout keys hash the description together with every option that
// changes positions:
//
//	key := keyer.LayoutKey(cache.Hash(descJSON), cache.LayoutKeyOpts{Engine: "dot", Direction: "TB"})
//
// # Errors
//
// Caches report absence as a miss (ok == false), never as an error. Errors
// are I/O or connection failures; callers treat them as misses and carry on.
package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Cache stores opaque byte values with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key. ok is false on a miss or expiry.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Default TTLs.
const (
	TTLHTTP   = 10 * time.Minute   // Backend responses
	TTLLayout = 7 * 24 * time.Hour // Positions are a pure function of the key
)

// ErrInvalidKey is returned for empty keys.
var ErrInvalidKey = errors.New("cache key must not be empty")

// DefaultDir returns the per-user cache directory, $XDG_CACHE_HOME/fsmflow
// or the platform equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "fsmflow"), nil
}
