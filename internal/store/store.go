// Package store defines the key-value persistence the favorites registry writes through.
//
// Values are opaque byte blobs. Drivers:
//   - redis  (internal/store/redis)
//   - file   (internal/store/file)
//   - memory (internal/store/memory)
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("store: key not found")

// Store is a durable key-value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value for key.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Name is the driver name, used in logs and metrics.
	Name() string
}

// Lister is implemented by drivers that can enumerate their keys.
// /infra uses it to report what the namespace holds.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Driver names accepted by configuration.
const (
	DriverRedis  = "redis"
	DriverFile   = "file"
	DriverMemory = "memory"
)
