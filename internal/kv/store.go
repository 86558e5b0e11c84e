// Package kv provides the key-value storage contract used to persist
// history entries, together with local backends and a read-through cache.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store when a key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is a byte-level key-value backend.
type Store interface {
	// Get returns the stored bytes, or ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, overwriting any existing value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. A missing key returns ErrNotFound.
	Delete(ctx context.Context, key string) error
}
