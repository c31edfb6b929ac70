package cache

import (
	"context"
	"sync"
	"time"

	"github.com/payables/backend/internal/domain/shared"
)

// lockEntry represents a held lock with expiration
type lockEntry struct {
	expiresAt time.Time
}

// InMemoryLockStore implements LockStore using an in-memory map. Suitable for
// single-instance deployments and testing; locks are not shared across
// process instances.
type InMemoryLockStore struct {
	mu        sync.Mutex
	locks     map[string]lockEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryLockStore creates a new in-memory lock store.
// It starts a background goroutine to clean up expired locks.
func NewInMemoryLockStore() *InMemoryLockStore {
	store := &InMemoryLockStore{
		locks:    make(map[string]lockEntry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Acquire attempts to take the lock with a TTL. Returns true if the lock was
// newly acquired, false if another holder has it and it has not expired.
func (s *InMemoryLockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, held := s.locks[key]; held && time.Now().Before(e.expiresAt) {
		return false, nil
	}

	s.locks[key] = lockEntry{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// Release frees the lock
func (s *InMemoryLockStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, key)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryLockStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired locks
func (s *InMemoryLockStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired locks from the store
func (s *InMemoryLockStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.locks {
		if now.After(e.expiresAt) {
			delete(s.locks, key)
		}
	}
}

// Size returns the number of held locks (for testing/monitoring)
func (s *InMemoryLockStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

// Ensure InMemoryLockStore implements LockStore
var _ shared.LockStore = (*InMemoryLockStore)(nil)
