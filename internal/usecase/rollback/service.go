// Package rollback implements rollback of an application to a recorded image identity.
package rollback

import (
	"context"
	"fmt"
	"slices"

	"github.com/bnema/zerowrap"

	"github.com/stackkeeper/stackkeeper/internal/boundaries/out"
	"github.com/stackkeeper/stackkeeper/internal/domain"
	"github.com/stackkeeper/stackkeeper/internal/usecase/apps"
)

// Service implements the RollbackService interface.
type Service struct {
	registry out.ApplicationRegistry
	compose  out.ComposeRunner
	engine   out.ContainerEngine
	history  out.HistoryStore
	locker   out.Locker
	log      zerowrap.Logger
}

// NewService creates a new rollback service.
func NewService(
	registry out.ApplicationRegistry,
	compose out.ComposeRunner,
	engine out.ContainerEngine,
	history out.HistoryStore,
	locker out.Locker,
	log zerowrap.Logger,
) *Service {
	return &Service{
		registry: registry,
		compose:  compose,
		engine:   engine,
		history:  history,
		locker:   locker,
		log:      log,
	}
}

// Candidates returns up to domain.RollbackCandidateLimit history entries,
// newest first, whose image is still present locally. Entries whose image is
// gone are excluded but stay in the history file.
func (s *Service) Candidates(ctx context.Context, name string) ([]domain.HistoryEntry, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:    "usecase",
		zerowrap.FieldUseCase:  "RollbackCandidates",
		zerowrap.FieldEntityID: name,
	})
	log := zerowrap.FromCtx(ctx)

	app, err := s.registry.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}

	entries, err := s.history.ReadRecent(app.Dir)
	if err != nil {
		return nil, log.WrapErr(err, "failed to read image history")
	}

	candidates := make([]domain.HistoryEntry, 0, domain.RollbackCandidateLimit)
	for _, entry := range entries {
		present, err := s.engine.ImageExists(ctx, entry.ImageID)
		if err != nil {
			return nil, log.WrapErr(err, "failed to check image presence")
		}
		if !present {
			continue
		}
		candidates = append(candidates, entry)
		if len(candidates) == domain.RollbackCandidateLimit {
			break
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrRollbackTargetUnavailable, name)
	}

	log.Debug().Int("history", len(entries)).Int("candidates", len(candidates)).Msg("rollback candidates collected")
	return candidates, nil
}

// Rollback re-points entry.ImageName at entry.ImageID and recreates the
// application. A failed retag leaves the application untouched.
func (s *Service) Rollback(ctx context.Context, name string, entry domain.HistoryEntry) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:    "usecase",
		zerowrap.FieldUseCase:  "Rollback",
		zerowrap.FieldEntityID: name,
		"image":                entry.ImageName,
		"image_id":             entry.ImageID,
	})
	log := zerowrap.FromCtx(ctx)

	app, err := s.registry.Resolve(ctx, name)
	if err != nil {
		return err
	}
	if !app.HasComposeFile() {
		return fmt.Errorf("%w: %s", domain.ErrComposeFileMissing, name)
	}

	release, err := s.locker.Acquire(app.Name)
	if err != nil {
		return err
	}
	defer apps.ReleaseLock(ctx, release)

	present, err := s.engine.ImageExists(ctx, entry.ImageID)
	if err != nil {
		return log.WrapErr(err, "failed to check image presence")
	}
	if !present {
		return fmt.Errorf("%w: image %s is no longer present", domain.ErrRollbackTargetUnavailable, entry.ShortID())
	}

	// The compose file may have moved to another image since the entry was recorded.
	if declared, err := s.registry.Images(ctx, app); err == nil && !slices.Contains(declared, entry.ImageName) {
		log.Warn().Strs("declared", declared).Msg("compose file no longer references this image, rollback may not take effect")
	}

	if err := s.engine.TagImage(ctx, entry.ImageID, entry.ImageName); err != nil {
		return log.WrapErr(err, "failed to retag image")
	}

	if err := apps.Cycle(ctx, s.compose, app, true); err != nil {
		return log.WrapErr(err, "failed to restart application")
	}

	log.Info().Msg("application rolled back")
	return nil
}
