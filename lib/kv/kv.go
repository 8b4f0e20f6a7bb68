// Package kv is the small cache interface services put in front of slow
// upstreams. Values carry a ttl so stale reads age out on their own.
package kv

import (
	"context"
	"time"
)

type KV interface {
	// Get returns the cached value, or ok=false when the key is missing
	// or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
