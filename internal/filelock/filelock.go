// Package filelock provides the exclusive session lock and atomic file
// writes backing the session state store. A session is owned by at most one
// engine process at a time, and every snapshot is written with a
// temp-and-rename strategy so a crash never leaves a partially written file.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

// SessionLock is a flock-based exclusive lock over a session directory.
type SessionLock struct {
	flock *flock.Flock
	path  string
}

// Acquire attempts to take the session lock without blocking. A contended
// lock means another engine instance owns the session; that is reported as
// SessionLockError rather than waited out.
func Acquire(path string) (*SessionLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)
	acquired, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock %s: %w", path, err)
	}
	if !acquired {
		return nil, &models.SessionLockError{Path: path}
	}
	return &SessionLock{flock: fl, path: path}, nil
}

// Path returns the lock file path.
func (l *SessionLock) Path() string { return l.path }

// Release gives up the lock. The lock file itself is left in place for the
// next owner.
func (l *SessionLock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release session lock %s: %w", l.path, err)
	}
	return nil
}

// AtomicWrite writes data to path via a temporary file in the same directory
// followed by a rename. Readers never observe a partial write; if the write
// fails at any point, the previous file content is untouched.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	// Temp file lives in the target directory so the rename stays on one
	// filesystem and remains atomic.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	tmp = nil
	return nil
}
