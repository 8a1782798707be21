package in

import (
	"context"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// BackupService defines volume backup orchestration use cases.
type BackupService interface {
	ListVolumes(ctx context.Context) ([]domain.Volume, error)
	Plan(ctx context.Context, volumes []string) (domain.BackupPlan, error)
	Backup(ctx context.Context, volumes []string, targetRoot string) (*domain.BackupSession, error)
	Restore(ctx context.Context, source string) ([]domain.RestoreResult, error)
}
