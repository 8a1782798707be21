// Package update implements the image update reconciliation use cases.
package update

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/bnema/zerowrap"
	"golang.org/x/sync/errgroup"

	"github.com/stackkeeper/stackkeeper/internal/boundaries/out"
	"github.com/stackkeeper/stackkeeper/internal/domain"
	"github.com/stackkeeper/stackkeeper/internal/usecase/apps"
	"github.com/stackkeeper/stackkeeper/pkg/validation"
)

// refreshWorkers bounds concurrent pulls during a bulk refresh.
const refreshWorkers = 4

// Run log names.
const (
	UpdateLogName  = "update"
	RefreshLogName = "refresh-unused"
)

// Config holds update settings.
type Config struct {
	// IgnoreImages are skipped on update; a pattern without a tag matches every tag.
	IgnoreImages []string
}

// Service implements the UpdateService interface.
type Service struct {
	registry out.ApplicationRegistry
	compose  out.ComposeRunner
	engine   out.ContainerEngine
	history  out.HistoryStore
	locker   out.Locker
	runLog   out.RunLog
	config   Config
	log      zerowrap.Logger
}

// NewService creates a new update service.
func NewService(
	registry out.ApplicationRegistry,
	compose out.ComposeRunner,
	engine out.ContainerEngine,
	history out.HistoryStore,
	locker out.Locker,
	runLog out.RunLog,
	config Config,
	log zerowrap.Logger,
) *Service {
	return &Service{
		registry: registry,
		compose:  compose,
		engine:   engine,
		history:  history,
		locker:   locker,
		runLog:   runLog,
		config:   config,
		log:      log,
	}
}

func (s *Service) ignored(ref string) bool {
	for _, pattern := range s.config.IgnoreImages {
		if validation.MatchImage(pattern, ref) {
			return true
		}
	}
	return false
}

// Update pulls the application's images and restarts it when a running (or
// forced) application received a new image. A stopped application is never
// started unless force is set. Pull failures are returned wrapped in
// domain.ErrPullFailed alongside the partial result; no restart happens then.
func (s *Service) Update(ctx context.Context, name string, force bool) (*domain.UpdateResult, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:    "usecase",
		zerowrap.FieldUseCase:  "UpdateApplication",
		zerowrap.FieldEntityID: name,
	})
	log := zerowrap.FromCtx(ctx)

	result := &domain.UpdateResult{Application: name, Force: force}

	app, err := s.registry.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	if !app.HasComposeFile() {
		log.Warn().Msg("no compose file found, skipping")
		result.Skipped = true
		return result, nil
	}

	release, err := s.locker.Acquire(app.Name)
	if err != nil {
		return nil, err
	}
	defer apps.ReleaseLock(ctx, release)

	running, err := s.compose.IsRunning(ctx, app)
	if err != nil {
		return nil, log.WrapErr(err, "failed to read application state")
	}
	result.WasRunning = running

	images, err := s.registry.Images(ctx, app)
	if err != nil {
		return nil, log.WrapErr(err, "failed to read declared images")
	}

	pullLog, err := s.runLog.Open(UpdateLogName)
	if err != nil {
		return nil, log.WrapErr(err, "failed to open run log")
	}
	defer pullLog.Close()
	fmt.Fprintf(pullLog, "# %s\n", app.Name)

	updateFound := force
	var pullErrs []error
	for _, ref := range images {
		if s.ignored(ref) {
			log.Info().Str("image", ref).Msg("image ignored")
			result.Ignored = append(result.Ignored, ref)
			continue
		}

		outcome := s.refresh(ctx, app, ref, pullLog)
		result.Pulled = append(result.Pulled, outcome)
		if outcome.Err != nil {
			pullErrs = append(pullErrs, outcome.Err)
			continue
		}
		if outcome.Changed {
			updateFound = true
		}
	}
	result.UpdateFound = updateFound

	if len(pullErrs) > 0 {
		log.Warn().Int("failed", len(pullErrs)).Msg("pull failed, leaving application as-is")
		return result, errors.Join(pullErrs...)
	}

	switch {
	case updateFound && (running || force):
		if err := apps.Cycle(ctx, s.compose, app, force); err != nil {
			return result, log.WrapErr(err, "failed to restart application")
		}
		result.Restarted = true
	case running:
		log.Info().Msg("application up to date")
	default:
		log.Info().Bool("update_found", updateFound).Msg("images refreshed, application stays stopped")
	}

	return result, nil
}

// refresh records the identity of ref before and after pulling it.
func (s *Service) refresh(ctx context.Context, app domain.Application, ref string, w io.Writer) domain.PullOutcome {
	log := zerowrap.FromCtx(ctx)
	outcome := domain.PullOutcome{Image: ref}

	before, err := s.engine.ImageID(ctx, ref)
	if err != nil {
		log.Warn().Err(err).Str("image", ref).Msg("failed to read image identity before pull")
		before = ""
	}
	if err := s.history.Append(app.Dir, ref, before); err != nil {
		log.Warn().Err(err).Str("image", ref).Msg("failed to record image history")
	}

	if err := s.engine.PullImage(ctx, ref, w); err != nil {
		outcome.Err = fmt.Errorf("%w: %s: %v", domain.ErrPullFailed, ref, err)
		return outcome
	}

	after, err := s.engine.ImageID(ctx, ref)
	if err != nil {
		log.Warn().Err(err).Str("image", ref).Msg("failed to read image identity after pull")
		return outcome
	}
	if err := s.history.Append(app.Dir, ref, after); err != nil {
		log.Warn().Err(err).Str("image", ref).Msg("failed to record image history")
	}

	outcome.Changed = before != "" && before != after
	if outcome.Changed {
		log.Info().Str("image", ref).Str("before", before).Str("after", after).Msg("image updated")
	}
	return outcome
}

// UpdateAll updates every discovered application, one at a time. A failure
// for one application does not stop the others.
func (s *Service) UpdateAll(ctx context.Context, force bool) ([]domain.UpdateResult, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "UpdateAll",
	})
	log := zerowrap.FromCtx(ctx)

	names, err := s.registry.Discover(ctx)
	if err != nil {
		return nil, log.WrapErr(err, "failed to discover applications")
	}

	results := make([]domain.UpdateResult, 0, len(names))
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := s.Update(ctx, name, force)
		if result != nil {
			results = append(results, *result)
		}
		if err != nil {
			if domain.IsFatal(err) {
				return results, err
			}
			log.Error().Err(err).Str(zerowrap.FieldEntityID, name).Msg("update failed")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return results, errors.Join(errs...)
}

// RefreshUnused pulls every tagged local image no container references, with
// at most four pulls in flight. Each pull writes to its own buffer; buffers are
// appended to the run log in input order once all pulls finished.
func (s *Service) RefreshUnused(ctx context.Context) ([]domain.PullOutcome, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "RefreshUnused",
	})
	log := zerowrap.FromCtx(ctx)

	images, err := s.engine.ListImages(ctx)
	if err != nil {
		return nil, log.WrapErr(err, "failed to list images")
	}
	inUse, err := s.engine.ImagesInUse(ctx)
	if err != nil {
		return nil, log.WrapErr(err, "failed to list images in use")
	}

	var refs []string
	for _, img := range images {
		if inUse[img.ID] {
			continue
		}
		for _, tag := range img.Tags {
			if !s.ignored(tag) {
				refs = append(refs, tag)
			}
		}
	}
	sort.Strings(refs)

	outcomes := make([]domain.PullOutcome, len(refs))
	buffers := make([]bytes.Buffer, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshWorkers)
	for i, ref := range refs {
		g.Go(func() error {
			outcomes[i].Image = ref
			before, _ := s.engine.ImageID(gctx, ref)
			if err := s.engine.PullImage(gctx, ref, &buffers[i]); err != nil {
				outcomes[i].Err = fmt.Errorf("%w: %s: %v", domain.ErrPullFailed, ref, err)
				return nil
			}
			after, _ := s.engine.ImageID(gctx, ref)
			outcomes[i].Changed = before != "" && before != after
			return nil
		})
	}
	_ = g.Wait()

	w, err := s.runLog.Open(RefreshLogName)
	if err != nil {
		return outcomes, log.WrapErr(err, "failed to open run log")
	}
	defer w.Close()

	var errs []error
	for i := range refs {
		fmt.Fprintf(w, "# %s\n", refs[i])
		_, _ = buffers[i].WriteTo(w)
		if outcomes[i].Err != nil {
			errs = append(errs, outcomes[i].Err)
		}
	}

	log.Info().Int("images", len(refs)).Int("failed", len(errs)).Msg("unused images refreshed")
	return outcomes, errors.Join(errs...)
}
