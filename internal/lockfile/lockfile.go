// Package lockfile implements a cross-process advisory lock backed by the
// atomic creation of a file.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrTimeout is returned when the lock could not be acquired in time.
var ErrTimeout = errors.New("lock timeout")

const (
	pollInterval = 10 * time.Millisecond

	// StaleAfter is the age after which a leftover lock file is considered
	// abandoned by a crashed process and removed.
	StaleAfter = 30 * time.Second
)

// Acquire creates path with O_EXCL, retrying until it succeeds, ctx is done or
// timeout elapses (zero means no timeout). The returned function releases the
// lock.
func Acquire(ctx context.Context, path string, timeout time.Duration) (func(), error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { _ = os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", path, err)
		}

		if info, statErr := os.Stat(path); statErr == nil && time.Since(info.ModTime()) > StaleAfter {
			_ = os.Remove(path)
			continue
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%s: %w", path, ErrTimeout)
			}
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
