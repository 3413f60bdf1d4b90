package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryManager is an in-process Manager for single-process deployments
// and tests. Same contract as RedisManager: bounded wait, ErrBusy on
// timeout, release on every exit path. Leases do not auto-expire; a
// process crash releases everything anyway.
type MemoryManager struct {
	mu   sync.Mutex
	held map[string]chan struct{}
	wait time.Duration
}

func NewMemoryManager(wait time.Duration) *MemoryManager {
	return &MemoryManager{
		held: make(map[string]chan struct{}),
		wait: wait,
	}
}

// Acquire blocks until the key is free, the wait timeout elapses
// (ErrBusy), or ctx is done.
func (m *MemoryManager) Acquire(ctx context.Context, key string) (Lease, error) {
	deadline := time.NewTimer(m.wait)
	defer deadline.Stop()

	for {
		m.mu.Lock()
		released, taken := m.held[key]
		if !taken {
			m.held[key] = make(chan struct{})
			m.mu.Unlock()
			return &memoryLease{mgr: m, key: key}, nil
		}
		m.mu.Unlock()

		select {
		case <-released:
			// key freed, try again
		case <-deadline.C:
			return nil, ErrBusy
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

type memoryLease struct {
	mgr  *MemoryManager
	key  string
	once sync.Once
}

func (l *memoryLease) Release(ctx context.Context) error {
	l.once.Do(func() {
		l.mgr.mu.Lock()
		if ch, ok := l.mgr.held[l.key]; ok {
			delete(l.mgr.held, l.key)
			close(ch)
		}
		l.mgr.mu.Unlock()
	})
	return nil
}
