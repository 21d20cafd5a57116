// Package cache holds short-lived catalog responses keyed by query or track id.
package cache

import (
	"context"
	"time"
)

// Store is a byte-value cache with per-entry expiry.
type Store interface {
	// Get returns ok=false on a miss or an expired entry.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value for ttl. A ttl <= 0 keeps the entry until Close.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete drops key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}
