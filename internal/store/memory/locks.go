package memory

import (
	"context"
	"errors"
	"sync"
	"time"
)

var errLockTimeout = errors.New("lock acquisition timed out")

// rowLocks hands out one binary semaphore per row key. Locks are advisory,
// exist only for the lifetime of the process, and are never garbage
// collected; the key space is bounded by the number of rows.
type rowLocks struct {
	mu   sync.Mutex
	sems map[string]chan struct{}
}

func newRowLocks() *rowLocks {
	return &rowLocks{sems: make(map[string]chan struct{})}
}

func (l *rowLocks) sem(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.sems[key]
	if !ok {
		sem = make(chan struct{}, 1)
		l.sems[key] = sem
	}
	return sem
}

// acquire blocks until the row lock is held, the context is cancelled, or
// the timeout elapses. The returned release func must be called exactly
// once.
func (l *rowLocks) acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	sem := l.sem(key)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, errLockTimeout
	}
}
