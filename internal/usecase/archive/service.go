// Package archive implements the secure archive use case: sealing a backup
// session directory into a verified, optionally encrypted 7z archive.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bnema/zerowrap"
	"github.com/dustin/go-humanize"

	"github.com/stackkeeper/stackkeeper/internal/boundaries/out"
	"github.com/stackkeeper/stackkeeper/internal/domain"
	"github.com/stackkeeper/stackkeeper/pkg/bytesize"
	"github.com/stackkeeper/stackkeeper/pkg/validation"
)

// LogName is the run log receiving raw archiver output.
const LogName = "archive"

// Config holds archive defaults.
type Config struct {
	// SplitSize is used when the options leave it empty.
	SplitSize string
	// StoredPassword is the ciphertext of the default password.
	StoredPassword string
}

// Service implements the archive use cases.
type Service struct {
	archiver out.Archiver
	cipher   out.Cipher
	settings out.SettingsWriter
	prompter out.Prompter
	runLog   out.RunLog
	config   Config
	log      zerowrap.Logger
	now      func() time.Time
	display  func(domain.OutputLine)

	mu     sync.RWMutex
	stored string
}

// NewService creates a new archive service.
func NewService(
	archiver out.Archiver,
	cipher out.Cipher,
	settings out.SettingsWriter,
	prompter out.Prompter,
	runLog out.RunLog,
	config Config,
	log zerowrap.Logger,
) *Service {
	return &Service{
		archiver: archiver,
		cipher:   cipher,
		settings: settings,
		prompter: prompter,
		runLog:   runLog,
		config:   config,
		log:      log,
		now:      time.Now,
		stored:   config.StoredPassword,
	}
}

// OnOutput registers the callback receiving classified archiver output lines.
func (s *Service) OnOutput(fn func(domain.OutputLine)) {
	s.display = fn
}

// Create seals opts.SourceDir into an archive, verifies it, and offers to
// delete the source directory once verification succeeded.
func (s *Service) Create(ctx context.Context, opts domain.ArchiveOptions) (*domain.ArchiveResult, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "CreateArchive",
		"source":              opts.SourceDir,
	})
	log := zerowrap.FromCtx(ctx)

	if !s.archiver.Available() {
		return nil, fmt.Errorf("%w: 7z is not installed", domain.ErrDependencyMissing)
	}

	source, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return nil, log.WrapErr(err, "failed to resolve source directory")
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil, log.WrapErr(err, "failed to read source directory")
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrConfigInvalid, source)
	}

	if opts.CompressionLevel < 0 || opts.CompressionLevel > 9 {
		return nil, fmt.Errorf("%w: compression level %d outside 0-9", domain.ErrConfigInvalid, opts.CompressionLevel)
	}

	splitSize := opts.SplitSize
	if splitSize == "" {
		splitSize = s.config.SplitSize
	}
	splitFlag, err := bytesize.SplitFlag(splitSize)
	if err != nil {
		return nil, fmt.Errorf("%w: split size: %w", domain.ErrConfigInvalid, err)
	}

	archivePath, err := s.archivePath(source, opts)
	if err != nil {
		return nil, err
	}

	password, err := s.resolvePassword(ctx, opts.Password)
	if err != nil {
		return nil, err
	}
	defer clear(password)

	raw, err := s.runLog.Open(LogName)
	if err != nil {
		return nil, log.WrapErr(err, "failed to open archive log")
	}
	defer raw.Close()
	output := newLineWriter(raw, s.display)
	defer output.Flush()

	log.Info().Str("archive", archivePath).Bool("encrypted", password != nil).Str("split", splitFlag).Msg("creating archive")

	req := out.ArchiveRequest{
		ArchivePath:      archivePath,
		SourceDir:        source,
		Password:         password,
		SplitFlag:        splitFlag,
		CompressionLevel: opts.CompressionLevel,
	}
	if err := s.archiver.Create(ctx, req, output); err != nil {
		output.Flush()
		if errors.Is(err, domain.ErrArchiveCreation) {
			return nil, log.WrapErr(err, "failed to create archive")
		}
		return nil, log.WrapErr(fmt.Errorf("%w: %w", domain.ErrArchiveCreation, err), "failed to create archive")
	}

	result := &domain.ArchiveResult{Path: archivePath, Encrypted: password != nil}
	result.Parts, result.SizeBytes = archiveParts(archivePath, splitFlag != "")

	verifyErr := s.archiver.Test(ctx, firstPart(result), password, output)
	clear(password)
	output.Flush()
	if verifyErr != nil {
		if errors.Is(verifyErr, domain.ErrArchiveVerification) {
			return result, log.WrapErr(verifyErr, "archive verification failed")
		}
		return result, log.WrapErr(fmt.Errorf("%w: %w", domain.ErrArchiveVerification, verifyErr), "archive verification failed")
	}
	result.Verified = true

	log.Info().
		Str("archive", archivePath).
		Int("parts", len(result.Parts)).
		Str("size", humanize.IBytes(uint64(result.SizeBytes))).
		Msg("archive verified")

	ok, err := s.prompter.Confirm(fmt.Sprintf("Archive verified. Delete the source directory %s?", source), false)
	if err != nil {
		if errors.Is(err, domain.ErrUserCancelled) {
			return result, nil
		}
		return result, err
	}
	if !ok {
		return result, nil
	}
	if err := os.RemoveAll(source); err != nil {
		return result, log.WrapErr(err, "failed to delete source directory")
	}
	result.SourceDeleted = true
	log.Info().Str("source", source).Msg("source directory deleted")

	return result, nil
}

// archivePath picks the output file name. When an archive or its first volume
// already exists a time suffix is appended, then a counter until the name is free.
func (s *Service) archivePath(source string, opts domain.ArchiveOptions) (string, error) {
	switch opts.Naming {
	case domain.NamingTagged:
		if err := validation.ValidateArchiveName(opts.Tag); err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrConfigInvalid, err)
		}
	case domain.NamingCustom:
		if err := validation.ValidateArchiveName(strings.TrimSuffix(opts.CustomName, domain.ArchiveExtension)); err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrConfigInvalid, err)
		}
	}

	now := s.now()
	name, err := opts.ArchiveName(now)
	if err != nil {
		return "", err
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = filepath.Dir(source)
	}
	path := filepath.Join(dir, name)
	if !taken(path) {
		return path, nil
	}

	suffixed := domain.CollisionName(name, now)
	path = filepath.Join(dir, suffixed)
	base := strings.TrimSuffix(suffixed, domain.ArchiveExtension)
	for i := 2; taken(path); i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, domain.ArchiveExtension))
	}
	return path, nil
}

// taken reports whether path or its first split volume already exists.
func taken(path string) bool {
	return exists(path) || exists(path+".001")
}

// archiveParts lists the files making up the archive and their total size.
func archiveParts(path string, split bool) ([]string, int64) {
	parts := []string{path}
	if split {
		matches, _ := filepath.Glob(path + ".[0-9][0-9][0-9]")
		if len(matches) > 0 {
			sort.Strings(matches)
			parts = matches
		}
	}
	var total int64
	for _, p := range parts {
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}
	return parts, total
}

func firstPart(r *domain.ArchiveResult) string {
	if len(r.Parts) > 0 {
		return r.Parts[0]
	}
	return r.Path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
