// Package lock implements per-application advisory locks shared between processes.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bnema/zerowrap"
	"github.com/gofrs/flock"

	"github.com/stackkeeper/stackkeeper/internal/domain"
	"github.com/stackkeeper/stackkeeper/pkg/validation"
)

// FileLocker implements out.Locker with flock(2) on <dir>/<name>.lock. The
// holder's PID is written into the lock file so contenders can name it.
type FileLocker struct {
	dir string
	pid int
	log zerowrap.Logger
}

// NewFileLocker creates a locker storing lock files in dir.
func NewFileLocker(dir string, log zerowrap.Logger) *FileLocker {
	return &FileLocker{dir: dir, pid: os.Getpid(), log: log}
}

// Path returns the lock file used for name.
func (l *FileLocker) Path(name string) string {
	return filepath.Join(l.dir, name+".lock")
}

// Acquire takes the lock for name without waiting. When another process holds
// it, the error wraps domain.ErrOperationInProgress and names the holder PID.
func (l *FileLocker) Acquire(name string) (func() error, error) {
	if err := validation.ValidateApplicationName(name); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(l.dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	path := l.Path(name)
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", name, err)
	}
	if !locked {
		if holder := readHolder(path); holder > 0 {
			return nil, fmt.Errorf("%w: %s is locked by process %d", domain.ErrOperationInProgress, name, holder)
		}
		return nil, fmt.Errorf("%w: %s is locked by another process", domain.ErrOperationInProgress, name)
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(l.pid)), 0600); err != nil {
		l.log.Warn().Err(err).Str("lock_file", path).Msg("failed to write PID marker")
	}

	l.log.Debug().
		Str(zerowrap.FieldLayer, "adapter").
		Str(zerowrap.FieldAdapter, "lock").
		Str("lock_file", path).
		Int("pid", l.pid).
		Msg("lock acquired")

	release := func() error {
		// The file stays in place; removing it would let a contender lock a stale inode.
		if err := os.Truncate(path, 0); err != nil {
			l.log.Warn().Err(err).Str("lock_file", path).Msg("failed to clear PID marker")
		}
		if err := fl.Unlock(); err != nil {
			return fmt.Errorf("failed to unlock %s: %w", name, err)
		}
		l.log.Debug().Str("lock_file", path).Msg("lock released")
		return nil
	}
	return release, nil
}

func readHolder(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
