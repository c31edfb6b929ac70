package shared

import (
	"context"
	"time"
)

// LockStore provides short-lived mutual exclusion keyed by an arbitrary
// string. It serializes state transitions that must not run concurrently for
// the same aggregate, such as releasing and undoing the same disbursement.
type LockStore interface {
	// Acquire attempts to take the lock. Returns true if the lock was
	// newly acquired, false if another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the lock so the next caller can acquire it.
	Release(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
