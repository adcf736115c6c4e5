package pipeline

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrLocked is returned when another run holds a fresh lock.
var ErrLocked = errors.New("pipeline: another run holds the lock")

// Lock is an exclusive lock file guarding one pipeline run.
type Lock struct {
	path string
}

// AcquireLock creates path exclusively. A lock file older than ttl is treated
// as left behind by a crashed run and replaced. A ttl of zero never expires.
func AcquireLock(path string, ttl time.Duration) (*Lock, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	for tries := 0; tries < 2; tries++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := fmt.Fprintf(f, `{"pid":%d,"time":%d}`+"\n", os.Getpid(), time.Now().Unix())
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("write lock file: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}

		info, statErr := os.Stat(path)
		if statErr != nil {
			if errors.Is(statErr, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat lock file: %w", statErr)
		}
		if ttl <= 0 || time.Since(info.ModTime()) < ttl {
			return nil, fmt.Errorf("%w: %s (age %s)", ErrLocked, path, time.Since(info.ModTime()).Round(time.Second))
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale lock file: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrLocked, path)
}

// Release removes the lock file.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
