package cron

import (
	"context"
	"sync"
)

// Lock guards a cycle against a concurrent cycle of the same Service.
// Implementations must be per process: every replica owns its catalog and
// has to run its own sync.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// MutexLock is the in-process Lock.
type MutexLock struct {
	mu sync.Mutex
}

// NewMutexLock returns an unlocked in-process lock.
func NewMutexLock() *MutexLock {
	return &MutexLock{}
}

// Acquire reports false instead of blocking when a run is already in flight.
func (l *MutexLock) Acquire(context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

// Release unlocks the mutex.
func (l *MutexLock) Release(context.Context) error {
	l.mu.Unlock()
	return nil
}
