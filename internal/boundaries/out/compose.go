package out

import (
	"context"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// ComposeRunner delegates orchestration primitives to docker compose.
type ComposeRunner interface {
	// Up starts the application detached. recreate forces container replacement.
	Up(ctx context.Context, app domain.Application, recreate bool) error
	Down(ctx context.Context, app domain.Application) error
	// IsRunning reports whether any service of the application is running.
	IsRunning(ctx context.Context, app domain.Application) (bool, error)
	// CheckVersion fails with domain.ErrDependencyMissing when compose is absent or too old.
	CheckVersion(ctx context.Context) (string, error)
}

// ApplicationRegistry discovers application directories and what they declare.
type ApplicationRegistry interface {
	// Discover returns the sorted names of applications having a compose file.
	Discover(ctx context.Context) ([]string, error)
	// Resolve returns the application for name, or domain.ErrApplicationNotFound.
	// A directory without a compose file resolves with an empty ComposeFile.
	Resolve(ctx context.Context, name string) (domain.Application, error)
	// Images returns the image references declared by the application.
	Images(ctx context.Context, app domain.Application) ([]string, error)
}

// HistoryStore persists the bounded per-application image identity log.
type HistoryStore interface {
	Append(appDir, imageName, imageID string) error
	// ReadRecent returns entries newest first.
	ReadRecent(appDir string) ([]domain.HistoryEntry, error)
}

// Locker provides cross-process mutual exclusion per application.
type Locker interface {
	// Acquire fails fast with domain.ErrOperationInProgress when the lock is held.
	Acquire(name string) (release func() error, err error)
}
