package service

import "sync"

// userLocks serializes read-then-write operations per user. Overlap checks,
// day-override rewrites and the rollover all read state and write based on
// it; without the lock two concurrent requests for the same user could both
// pass their checks and both write.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for one user, creating it on first use. The
// returned function releases it.
func (l *userLocks) Lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
