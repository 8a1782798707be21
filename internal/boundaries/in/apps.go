// Package in defines input ports (interfaces) for use cases.
// These interfaces define the contract between driving adapters (CLI) and use cases.
package in

import (
	"context"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// AppService defines application lifecycle use cases.
type AppService interface {
	List(ctx context.Context) ([]domain.Application, error)
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
}

// UpdateService defines image update use cases.
type UpdateService interface {
	Update(ctx context.Context, name string, force bool) (*domain.UpdateResult, error)
	UpdateAll(ctx context.Context, force bool) ([]domain.UpdateResult, error)
	RefreshUnused(ctx context.Context) ([]domain.PullOutcome, error)
}

// RollbackService defines rollback use cases.
type RollbackService interface {
	Candidates(ctx context.Context, name string) ([]domain.HistoryEntry, error)
	Rollback(ctx context.Context, name string, entry domain.HistoryEntry) error
}

// Dispatcher routes typed actions to the owning use case.
type Dispatcher interface {
	Dispatch(ctx context.Context, action domain.Action) (*domain.ActionResult, error)
}
