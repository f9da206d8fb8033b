// Package storage defines the small key-value port behind which the cart and
// account services persist their state, so they stay storage-agnostic and
// testable with an in-memory fake.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has no stored value so callers can treat
// an absent entry differently from a failing backend.
var ErrNotFound = errors.New("storage: key not found")

// Store is the persistence port. Values are opaque JSON blobs; the store never
// inspects them.
type Store interface {
	// Load returns the value stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save writes value under key, replacing any previous value.
	Save(ctx context.Context, key string, value []byte) error
	// Delete removes the value under key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error
}
