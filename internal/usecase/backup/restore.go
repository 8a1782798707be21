package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bnema/zerowrap"

	"github.com/stackkeeper/stackkeeper/internal/domain"
	"github.com/stackkeeper/stackkeeper/internal/usecase/apps"
)

// volumeArchive is one "<volume>.tar.<ext>" file found in a session directory.
type volumeArchive struct {
	volume     string
	path       string
	compressor domain.Compressor
}

// Restore loads every volume archive found in source back into its volume.
// source is a backup session directory or a .7z archive of one. Volumes that
// exist and are not empty are only overwritten after confirmation. Volumes of
// an application are restored while it is stopped.
func (s *Service) Restore(ctx context.Context, source string) ([]domain.RestoreResult, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "RestoreVolumes",
		"source":              source,
	})
	log := zerowrap.FromCtx(ctx)

	dir := source
	if strings.HasSuffix(source, domain.ArchiveExtension) || strings.Contains(filepath.Base(source), domain.ArchiveExtension+".") {
		extracted, cleanup, err := s.extractArchive(ctx, source)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		dir = extracted
	}

	archives, err := findVolumeArchives(dir)
	if err != nil {
		return nil, log.WrapErr(err, "failed to read backup directory")
	}
	if len(archives) == 0 {
		return nil, fmt.Errorf("%w: no volume archives in %s", domain.ErrVolumeNotFound, source)
	}

	// Confirm every overwrite before any application is stopped.
	var (
		results []domain.RestoreResult
		todo    []volumeArchive
	)
	for _, a := range archives {
		ok, err := s.confirmOverwrite(ctx, a.volume)
		if err != nil {
			return nil, err
		}
		if !ok {
			results = append(results, domain.RestoreResult{Volume: a.volume, Skipped: true})
			continue
		}
		todo = append(todo, a)
	}

	groups := make(map[string][]volumeArchive)
	var standalone []volumeArchive
	for _, a := range todo {
		owner, err := s.resolver.Resolve(ctx, a.volume)
		if err != nil {
			return nil, err
		}
		if owner.Standalone() {
			standalone = append(standalone, a)
			continue
		}
		groups[owner.Application] = append(groups[owner.Application], a)
	}

	appNames := make([]string, 0, len(groups))
	for name := range groups {
		appNames = append(appNames, name)
	}
	sort.Strings(appNames)

	for _, name := range appNames {
		results = append(results, s.restoreGroup(ctx, name, groups[name])...)
	}
	for _, a := range standalone {
		results = append(results, s.restoreVolume(ctx, a, ""))
	}

	return results, nil
}

func (s *Service) confirmOverwrite(ctx context.Context, volume string) (bool, error) {
	exists, err := s.engine.VolumeExists(ctx, volume)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}
	empty, err := s.volumes.IsEmpty(ctx, volume)
	if err != nil {
		return false, err
	}
	if empty {
		return true, nil
	}
	return s.prompter.Confirm(fmt.Sprintf("Volume %s is not empty. Overwrite its contents?", volume), false)
}

func (s *Service) restoreGroup(ctx context.Context, application string, archives []volumeArchive) []domain.RestoreResult {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldEntityID: application,
	})
	log := zerowrap.FromCtx(ctx)

	failAll := func(err error) []domain.RestoreResult {
		results := make([]domain.RestoreResult, 0, len(archives))
		for _, a := range archives {
			results = append(results, domain.RestoreResult{Volume: a.volume, Application: application, Error: err.Error()})
		}
		return results
	}

	app, err := s.registry.Resolve(ctx, application)
	if err != nil {
		return failAll(err)
	}
	release, err := s.locker.Acquire(app.Name)
	if err != nil {
		return failAll(err)
	}
	defer apps.ReleaseLock(ctx, release)

	if err := s.compose.Down(ctx, app); err != nil {
		log.Error().Err(err).Msg("failed to stop application, volumes not restored")
		return failAll(fmt.Errorf("failed to stop %s: %w", app.Name, err))
	}

	results := make([]domain.RestoreResult, 0, len(archives))
	for _, a := range archives {
		results = append(results, s.restoreVolume(ctx, a, app.Name))
	}

	if err := s.compose.Up(ctx, app, false); err != nil {
		log.Error().Err(err).Msg("failed to start application after restore")
	}
	return results
}

func (s *Service) restoreVolume(ctx context.Context, a volumeArchive, application string) domain.RestoreResult {
	log := zerowrap.FromCtx(ctx)
	result := domain.RestoreResult{Volume: a.volume, Application: application}

	exists, err := s.engine.VolumeExists(ctx, a.volume)
	if err == nil && !exists {
		err = s.engine.CreateVolume(ctx, a.volume)
	}
	if err == nil {
		err = s.volumes.Extract(ctx, a.path, a.volume, a.compressor)
	}
	if err != nil {
		log.Error().Err(err).Str("volume", a.volume).Msg("failed to restore volume")
		result.Error = err.Error()
		return result
	}

	log.Info().Str("volume", a.volume).Msg("volume restored")
	result.Restored = true
	return result
}

// extractArchive unpacks a sealed archive to a temp directory, asking for the
// password when the first attempt fails.
func (s *Service) extractArchive(ctx context.Context, archivePath string) (string, func(), error) {
	log := zerowrap.FromCtx(ctx)

	tmp, err := os.MkdirTemp(filepath.Dir(archivePath), ".restore-")
	if err != nil {
		return "", nil, log.WrapErr(err, "failed to create extraction directory")
	}
	cleanup := func() {
		if err := os.RemoveAll(tmp); err != nil {
			log.Warn().Err(err).Str("path", tmp).Msg("failed to remove extraction directory")
		}
	}

	err = s.archiver.Extract(ctx, archivePath, tmp, nil, io.Discard)
	if err != nil {
		log.Info().Msg("archive could not be opened without a password")
		password, perr := s.prompter.Password("Archive password")
		if perr != nil {
			cleanup()
			return "", nil, perr
		}
		err = s.archiver.Extract(ctx, archivePath, tmp, password, io.Discard)
		clear(password)
	}
	if err != nil {
		cleanup()
		return "", nil, log.WrapErr(err, "failed to extract archive")
	}

	dir, err := sessionRoot(tmp)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return dir, cleanup, nil
}

// sessionRoot returns dir itself when it holds volume archives, otherwise its
// single subdirectory (archives store the session directory by name).
func sessionRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
			continue
		}
		if _, _, ok := domain.CompressorForFile(e.Name()); ok {
			return dir, nil
		}
	}
	if len(subdirs) == 1 {
		return filepath.Join(dir, subdirs[0]), nil
	}
	return "", errors.New("archive does not contain a backup session")
}

func findVolumeArchives(dir string) ([]volumeArchive, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var archives []volumeArchive
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		c, volume, ok := domain.CompressorForFile(e.Name())
		if !ok {
			continue
		}
		archives = append(archives, volumeArchive{
			volume:     volume,
			path:       filepath.Join(dir, e.Name()),
			compressor: c,
		})
	}
	sort.Slice(archives, func(i, j int) bool { return archives[i].volume < archives[j].volume })
	return archives, nil
}
