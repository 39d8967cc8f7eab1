// Package store provides the key-value persistence used for templates,
// queue history and rules. Keys are flat strings; values are JSON blobs.
package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get for missing keys
var ErrKeyNotFound = errors.New("key not found")

// Store is the persistence contract consumed by the engine
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	KeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
}
