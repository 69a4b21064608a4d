// Package metadata is the client's persistent key/value store. The session
// layer keeps its serialized credential and profile here.
package metadata

import (
	"context"
)

// Repository stores opaque values by key.
type Repository interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set inserts or overwrites key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the given keys; missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// List returns every stored entry.
	List(ctx context.Context) (map[string][]byte, error)
}
