package cache

import (
	"context"
	"time"
)

// Null is a cache that stores nothing, for callers that want caching
// disabled without special-casing a nil Cache.
type Null struct{}

// NewNull creates a no-op cache.
func NewNull() Null { return Null{} }

// Get implements Cache; it always misses.
func (Null) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set implements Cache; it discards the entry.
func (Null) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete implements Cache.
func (Null) Delete(context.Context, string) error { return nil }

// Close implements Cache.
func (Null) Close() error { return nil }
