// Package cache provides pluggable caching for compilation results, keyed on
// the structural graph hash so unchanged graphs skip inference and
// compilation entirely.
//
// Backends share one small interface; a miss is reported through the ok
// return, never through an error. The Null backend disables caching without
// branching at the call sites.
package cache

import (
	"context"
	"time"
)

// TTLCompile is how long cached compilation results stay valid. Compiles are
// deterministic, so the TTL only bounds disk and memory growth.
const TTLCompile = 24 * time.Hour

// Cache stores opaque byte payloads under string keys with a TTL.
type Cache interface {
	// Get returns the payload stored under key. ok is false on a miss or
	// an expired entry.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key for ttl. A ttl of zero means TTLCompile.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the entry under key, if any.
	Delete(ctx context.Context, key string) error

	// Close releases any backend resources.
	Close() error
}

func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return TTLCompile
	}
	return ttl
}
