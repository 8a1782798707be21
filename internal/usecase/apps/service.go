// Package apps implements application lifecycle use cases.
package apps

import (
	"context"
	"fmt"

	"github.com/bnema/zerowrap"

	"github.com/stackkeeper/stackkeeper/internal/boundaries/out"
	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// Service implements the AppService interface.
type Service struct {
	registry out.ApplicationRegistry
	compose  out.ComposeRunner
	locker   out.Locker
	log      zerowrap.Logger
}

// NewService creates a new application lifecycle service.
func NewService(registry out.ApplicationRegistry, compose out.ComposeRunner, locker out.Locker, log zerowrap.Logger) *Service {
	return &Service{
		registry: registry,
		compose:  compose,
		locker:   locker,
		log:      log,
	}
}

// List returns every discovered application with its running flag.
func (s *Service) List(ctx context.Context) ([]domain.Application, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "ListApplications",
	})
	log := zerowrap.FromCtx(ctx)

	names, err := s.registry.Discover(ctx)
	if err != nil {
		return nil, log.WrapErr(err, "failed to discover applications")
	}

	result := make([]domain.Application, 0, len(names))
	for _, name := range names {
		app, err := s.registry.Resolve(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str(zerowrap.FieldEntityID, name).Msg("skipping unresolvable application")
			continue
		}
		running, err := s.compose.IsRunning(ctx, app)
		if err != nil {
			log.Warn().Err(err).Str(zerowrap.FieldEntityID, name).Msg("failed to read application state")
		}
		app.Running = running
		result = append(result, app)
	}
	return result, nil
}

// Start brings the application up.
func (s *Service) Start(ctx context.Context, name string) error {
	return s.withApp(ctx, "StartApplication", name, func(ctx context.Context, app domain.Application) error {
		return s.compose.Up(ctx, app, false)
	})
}

// Stop brings the application down.
func (s *Service) Stop(ctx context.Context, name string) error {
	return s.withApp(ctx, "StopApplication", name, func(ctx context.Context, app domain.Application) error {
		return s.compose.Down(ctx, app)
	})
}

func (s *Service) withApp(ctx context.Context, usecase, name string, fn func(context.Context, domain.Application) error) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:    "usecase",
		zerowrap.FieldUseCase:  usecase,
		zerowrap.FieldEntityID: name,
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
	defer ReleaseLock(ctx, release)

	if err := fn(ctx, app); err != nil {
		return log.WrapErr(err, "application operation failed")
	}

	log.Info().Msg("application operation completed")
	return nil
}

// ReleaseLock releases an application lock, logging a failure.
func ReleaseLock(ctx context.Context, release func() error) {
	if err := release(); err != nil {
		zerowrap.FromCtx(ctx).Warn().Err(err).Msg("failed to release application lock")
	}
}

// Cycle stops then starts app. A stop failure halts the sequence.
// The caller must hold the application's lock.
func Cycle(ctx context.Context, compose out.ComposeRunner, app domain.Application, recreate bool) error {
	log := zerowrap.FromCtx(ctx)

	if err := compose.Down(ctx, app); err != nil {
		return fmt.Errorf("failed to stop %s: %w", app.Name, err)
	}
	if err := compose.Up(ctx, app, recreate); err != nil {
		return fmt.Errorf("failed to start %s: %w", app.Name, err)
	}

	log.Info().Str(zerowrap.FieldEntityID, app.Name).Bool("recreate", recreate).Msg("application restarted")
	return nil
}
