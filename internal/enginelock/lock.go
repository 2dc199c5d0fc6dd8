// Package enginelock serializes engine runs across processes with an
// exclusive advisory file lock.
package enginelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// RetryDelay is the polling interval while another process holds the lock.
const RetryDelay = 250 * time.Millisecond

// Acquire blocks until the lock at path is held or ctx ends. The returned
// release func is safe to call more than once.
func Acquire(ctx context.Context, path string) (func(), error) {
	if path == "" {
		return nil, fmt.Errorf("acquire lock: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLockContext(ctx, RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire lock %s: not acquired", path)
	}
	return func() { _ = lock.Unlock() }, nil
}

// Held reports whether some process currently holds the lock at path.
func Held(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	probe := flock.New(path)
	ok, err := probe.TryLock()
	if err != nil {
		return false, err
	}
	if ok {
		_ = probe.Unlock()
		return false, nil
	}
	return true, nil
}
