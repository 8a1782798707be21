// Package backup implements volume backup and restore orchestration.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bnema/zerowrap"
	"github.com/google/uuid"

	"github.com/stackkeeper/stackkeeper/internal/boundaries/out"
	"github.com/stackkeeper/stackkeeper/internal/domain"
	"github.com/stackkeeper/stackkeeper/internal/usecase/apps"
	"github.com/stackkeeper/stackkeeper/pkg/validation"
)

// Config holds backup settings.
type Config struct {
	TargetRoot string
	Compressor domain.Compressor
}

// Service orchestrates volume backups and restores.
type Service struct {
	engine   out.ContainerEngine
	volumes  out.VolumeArchiver
	compose  out.ComposeRunner
	registry out.ApplicationRegistry
	locker   out.Locker
	archiver out.Archiver
	prompter out.Prompter
	resolver *Resolver
	config   Config
	log      zerowrap.Logger

	now   func() time.Time
	chown func(root string) error
}

// NewService creates a backup service.
func NewService(
	engine out.ContainerEngine,
	volumes out.VolumeArchiver,
	compose out.ComposeRunner,
	registry out.ApplicationRegistry,
	locker out.Locker,
	archiver out.Archiver,
	prompter out.Prompter,
	config Config,
	log zerowrap.Logger,
) *Service {
	if !config.Compressor.Valid() {
		config.Compressor = domain.CompressorZstd
	}
	return &Service{
		engine:   engine,
		volumes:  volumes,
		compose:  compose,
		registry: registry,
		locker:   locker,
		archiver: archiver,
		prompter: prompter,
		resolver: NewResolver(engine, registry),
		config:   config,
		log:      log,
		now:      time.Now,
		chown:    chownToInvoker,
	}
}

// ListVolumes returns every volume with its resolved owner.
func (s *Service) ListVolumes(ctx context.Context) ([]domain.Volume, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "ListVolumes",
	})
	log := zerowrap.FromCtx(ctx)

	names, err := s.engine.ListVolumes(ctx)
	if err != nil {
		return nil, log.WrapErr(err, "failed to list volumes")
	}

	result := make([]domain.Volume, 0, len(names))
	for _, name := range names {
		owner, err := s.resolver.Resolve(ctx, name)
		if err != nil {
			return nil, log.WrapErr(err, "failed to resolve volume owner")
		}
		result = append(result, domain.Volume{Name: name, Owner: owner})
	}
	return result, nil
}

// Plan partitions the selected volumes by owner. Every volume lands in exactly
// one group or in the standalone list; duplicates in the selection are dropped.
func (s *Service) Plan(ctx context.Context, volumes []string) (domain.BackupPlan, error) {
	var plan domain.BackupPlan

	selected := dedupe(volumes)
	if len(selected) == 0 {
		return plan, fmt.Errorf("%w: no volumes selected", domain.ErrVolumeNotFound)
	}

	groups := make(map[string]*domain.VolumeGroup)
	for _, name := range selected {
		if err := validation.ValidateVolumeName(name); err != nil {
			return plan, fmt.Errorf("%w: %v", domain.ErrVolumeNotFound, err)
		}
		exists, err := s.engine.VolumeExists(ctx, name)
		if err != nil {
			return plan, err
		}
		if !exists {
			return plan, fmt.Errorf("%w: %s", domain.ErrVolumeNotFound, name)
		}

		owner, err := s.resolver.Resolve(ctx, name)
		if err != nil {
			return plan, err
		}
		if owner.Standalone() {
			plan.Standalone = append(plan.Standalone, name)
			continue
		}
		g, ok := groups[owner.Application]
		if !ok {
			g = &domain.VolumeGroup{Application: owner.Application, Dir: owner.Dir}
			groups[owner.Application] = g
		}
		g.Volumes = append(g.Volumes, name)
	}

	for _, g := range groups {
		plan.Groups = append(plan.Groups, *g)
	}
	sort.Slice(plan.Groups, func(i, j int) bool {
		return plan.Groups[i].Application < plan.Groups[j].Application
	})
	return plan, nil
}

// Backup archives the selected volumes into a fresh timestamped directory
// under targetRoot (the configured root when empty). Applications are
// processed one at a time: stopped, archived, started. Standalone volumes are
// archived live. Per-volume failures are recorded in the session.
func (s *Service) Backup(ctx context.Context, volumes []string, targetRoot string) (*domain.BackupSession, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "BackupVolumes",
	})
	log := zerowrap.FromCtx(ctx)

	if targetRoot == "" {
		targetRoot = s.config.TargetRoot
	}

	plan, err := s.Plan(ctx, volumes)
	if err != nil {
		return nil, err
	}

	started := s.now()
	session := &domain.BackupSession{
		ID:        uuid.New().String(),
		TargetDir: filepath.Join(targetRoot, started.Format(domain.SessionDirLayout)),
		StartedAt: started,
		Plan:      plan,
		Errors:    make(map[string]string),
	}

	if err := os.MkdirAll(targetRoot, 0755); err != nil {
		return nil, log.WrapErr(err, "failed to create backup root")
	}
	if err := os.Mkdir(session.TargetDir, 0755); err != nil {
		return nil, log.WrapErr(err, "failed to create backup session directory")
	}

	log.Info().
		Str("session_id", session.ID).
		Str("target", session.TargetDir).
		Int("volumes", plan.VolumeCount()).
		Msg("backup started")

	for _, group := range plan.Groups {
		if err := ctx.Err(); err != nil {
			return s.finish(ctx, session), err
		}
		s.backupGroup(ctx, session, group)
	}

	for _, name := range plan.Standalone {
		if err := ctx.Err(); err != nil {
			return s.finish(ctx, session), err
		}
		session.Results = append(session.Results, s.archiveVolume(ctx, session.TargetDir, name, ""))
	}

	return s.finish(ctx, session), nil
}

func (s *Service) finish(ctx context.Context, session *domain.BackupSession) *domain.BackupSession {
	log := zerowrap.FromCtx(ctx)

	if err := s.chown(session.TargetDir); err != nil {
		log.Warn().Err(err).Str("target", session.TargetDir).Msg("failed to hand backup over to invoking user")
	}
	session.Duration = s.now().Sub(session.StartedAt)

	log.Info().
		Str("session_id", session.ID).
		Int("failed", len(session.Failed())).
		Dur("duration", session.Duration).
		Msg("backup finished")
	return session
}

// backupGroup brackets the group's volumes between a stop and a start of the
// owning application. The start is attempted whatever happened in between.
func (s *Service) backupGroup(ctx context.Context, session *domain.BackupSession, group domain.VolumeGroup) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldEntityID: group.Application,
	})
	log := zerowrap.FromCtx(ctx)

	fail := func(reason error) {
		session.Errors[group.Application] = reason.Error()
		for _, v := range group.Volumes {
			session.Results = append(session.Results, domain.VolumeBackupResult{
				Volume:      v,
				Application: group.Application,
				Status:      domain.VolumeFailed,
				Error:       reason.Error(),
			})
		}
	}

	app, err := s.registry.Resolve(ctx, group.Application)
	if err != nil {
		fail(err)
		return
	}

	release, err := s.locker.Acquire(app.Name)
	if err != nil {
		log.Error().Err(err).Msg("application is busy, volumes not archived")
		fail(err)
		return
	}
	defer apps.ReleaseLock(ctx, release)

	if err := s.compose.Down(ctx, app); err != nil {
		log.Error().Err(err).Msg("failed to stop application, volumes not archived")
		fail(fmt.Errorf("failed to stop %s: %w", app.Name, err))
	} else {
		for _, v := range group.Volumes {
			session.Results = append(session.Results, s.archiveVolume(ctx, session.TargetDir, v, app.Name))
		}
	}

	if err := s.compose.Up(ctx, app, false); err != nil {
		log.Error().Err(err).Msg("failed to start application after backup")
		session.Errors[app.Name] = fmt.Sprintf("failed to start %s: %v", app.Name, err)
	}
}

func (s *Service) archiveVolume(ctx context.Context, dir, volume, application string) domain.VolumeBackupResult {
	log := zerowrap.FromCtx(ctx)
	result := domain.VolumeBackupResult{Volume: volume, Application: application}

	empty, err := s.volumes.IsEmpty(ctx, volume)
	if err != nil {
		log.Error().Err(err).Str("volume", volume).Msg("failed to inspect volume contents")
		result.Status = domain.VolumeFailed
		result.Error = err.Error()
		return result
	}
	if empty {
		log.Info().Str("volume", volume).Msg("volume is empty, skipped")
		result.Status = domain.VolumeSkippedEmpty
		return result
	}

	path, err := s.volumes.Archive(ctx, volume, dir, s.config.Compressor)
	if err != nil {
		log.Error().Err(err).Str("volume", volume).Msg("failed to archive volume")
		result.Status = domain.VolumeFailed
		result.Error = err.Error()
		return result
	}

	log.Info().Str("volume", volume).Str("path", path).Msg("volume archived")
	result.Status = domain.VolumeArchived
	result.Path = path
	return result
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		result = append(result, n)
	}
	sort.Strings(result)
	return result
}
