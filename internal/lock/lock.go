// Package lock provides the single-instance advisory file lock acquired
// at process start.
package lock

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning indicates another process already holds the
// instance lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Lock wraps an exclusive advisory file lock tied to a file descriptor,
// so the OS releases it automatically on crash or process exit even if
// Release is never called.
type Lock struct {
	flock *flock.Flock
}

// Acquire attempts a non-blocking exclusive lock on path. If another
// holder exists it returns ErrAlreadyRunning without creating or
// touching anything else in the data directory.
func Acquire(path string) (*Lock, error) {
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock: acquiring %s: %w", path, err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}

	return &Lock{flock: fl}, nil
}

// Release drops the lock. Safe to call on a process exit path; the OS
// would release it regardless once the file descriptor closes.
func (l *Lock) Release() error {
	return l.flock.Unlock()
}
