// Package dispatch routes typed actions to the use case that owns them.
package dispatch

import (
	"context"
	"fmt"

	"github.com/bnema/zerowrap"

	"github.com/stackkeeper/stackkeeper/internal/boundaries/in"
	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// Handler implements in.Dispatcher.
type Handler struct {
	apps     in.AppService
	updates  in.UpdateService
	rollback in.RollbackService
	backup   in.BackupService
	archive  in.ArchiveService
}

// NewHandler creates a dispatcher over the given services.
func NewHandler(
	apps in.AppService,
	updates in.UpdateService,
	rollback in.RollbackService,
	backup in.BackupService,
	archive in.ArchiveService,
) *Handler {
	return &Handler{
		apps:     apps,
		updates:  updates,
		rollback: rollback,
		backup:   backup,
		archive:  archive,
	}
}

// Dispatch runs action and returns its typed result.
func (h *Handler) Dispatch(ctx context.Context, action domain.Action) (*domain.ActionResult, error) {
	kind := domain.ActionKind(action)
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:  "usecase",
		zerowrap.FieldAction: kind,
	})
	log := zerowrap.FromCtx(ctx)
	log.Debug().Msg("dispatching action")

	result := &domain.ActionResult{Kind: kind}

	switch a := action.(type) {
	case domain.StartAction:
		result.App = a.App
		return result, h.apps.Start(ctx, a.App)

	case domain.StopAction:
		result.App = a.App
		return result, h.apps.Stop(ctx, a.App)

	case domain.UpdateAction:
		result.App = a.App
		update, err := h.updates.Update(ctx, a.App, a.Force)
		result.Update = update
		return result, err

	case domain.RollbackAction:
		result.App = a.App
		return result, h.rollback.Rollback(ctx, a.App, a.Entry)

	case domain.BackupAction:
		session, err := h.backup.Backup(ctx, a.Volumes, a.TargetRoot)
		result.Session = session
		return result, err

	case domain.RestoreAction:
		restored, err := h.backup.Restore(ctx, a.Source)
		result.Restore = restored
		return result, err

	case domain.ArchiveAction:
		archived, err := h.archive.Create(ctx, a.Options)
		result.Archive = archived
		return result, err

	default:
		return nil, fmt.Errorf("unsupported action %T", action)
	}
}
