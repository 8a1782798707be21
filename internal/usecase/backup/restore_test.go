package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

func writeSession(t *testing.T, dir string, files ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("data"), 0644))
	}
}

func TestRestore_FromSessionDirectory(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	writeSession(t, dir, "app1_data.tar.zst", "fresh.tar.gz", "busy.tar.zst", "notes.txt")

	// app1_data: exists, empty, owned by app1.
	f.engine.On("VolumeExists", mock.Anything, "app1_data").Return(true, nil)
	f.volumes.On("IsEmpty", mock.Anything, "app1_data").Return(true, nil)
	f.engine.On("ContainersUsingVolume", mock.Anything, "app1_data").Return([]domain.Container{
		{ID: "c1", Labels: map[string]string{domain.LabelComposeProject: "app1"}},
	}, nil)
	f.expectApp(app1)
	f.expectCycle(app1)
	f.volumes.On("Extract", mock.Anything, filepath.Join(dir, "app1_data.tar.zst"), "app1_data", domain.CompressorZstd).
		Run(f.record("extract app1_data")).Return(nil)

	// fresh: missing, created then extracted with gzip.
	f.engine.On("VolumeExists", mock.Anything, "fresh").Return(false, nil)
	f.engine.On("ContainersUsingVolume", mock.Anything, "fresh").Return(nil, nil)
	f.engine.On("CreateVolume", mock.Anything, "fresh").Return(nil)
	f.volumes.On("Extract", mock.Anything, filepath.Join(dir, "fresh.tar.gz"), "fresh", domain.CompressorGzip).Return(nil)

	// busy: exists with data, user declines.
	f.engine.On("VolumeExists", mock.Anything, "busy").Return(true, nil)
	f.volumes.On("IsEmpty", mock.Anything, "busy").Return(false, nil)
	f.prompter.On("Confirm", mock.MatchedBy(func(msg string) bool { return msg != "" }), false).Return(false, nil)

	results, err := f.svc.Restore(context.Background(), dir)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, domain.RestoreResult{Volume: "busy", Skipped: true}, results[0])
	assert.Equal(t, domain.RestoreResult{Volume: "app1_data", Application: "app1", Restored: true}, results[1])
	assert.Equal(t, domain.RestoreResult{Volume: "fresh", Restored: true}, results[2])
	assert.Equal(t, []string{"down app1", "extract app1_data", "up app1"}, f.calls)
	f.volumes.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, "busy", mock.Anything)
}

func TestRestore_EncryptedArchiveAsksForPassword(t *testing.T) {
	f := newFixture(t)
	archivePath := filepath.Join(t.TempDir(), "backup_2026-03-01.7z")
	require.NoError(t, os.WriteFile(archivePath, []byte("7z"), 0600))

	f.archiver.On("Extract", mock.Anything, archivePath, mock.Anything, []byte(nil), mock.Anything).
		Return(errors.New("wrong password")).Once()
	f.prompter.On("Password", "Archive password").Return([]byte("pw"), nil)
	f.archiver.On("Extract", mock.Anything, archivePath, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			writeSession(t, filepath.Join(args.Get(2).(string), "2026-03-01_02-03-04"), "loose.tar.zst")
		}).Return(nil).Once()

	f.engine.On("VolumeExists", mock.Anything, "loose").Return(false, nil)
	f.engine.On("ContainersUsingVolume", mock.Anything, "loose").Return(nil, nil)
	f.engine.On("CreateVolume", mock.Anything, "loose").Return(nil)
	f.volumes.On("Extract", mock.Anything, mock.MatchedBy(func(p string) bool {
		return filepath.Base(p) == "loose.tar.zst"
	}), "loose", domain.CompressorZstd).Return(nil)

	results, err := f.svc.Restore(context.Background(), archivePath)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Restored)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(archivePath), ".restore-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestRestore_NoArchives(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Restore(context.Background(), t.TempDir())

	assert.ErrorIs(t, err, domain.ErrVolumeNotFound)
}

func TestSessionRoot(t *testing.T) {
	t.Run("archives at top level", func(t *testing.T) {
		dir := t.TempDir()
		writeSession(t, dir, "v.tar.zst")
		root, err := sessionRoot(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, root)
	})

	t.Run("single session subdirectory", func(t *testing.T) {
		dir := t.TempDir()
		writeSession(t, filepath.Join(dir, "2026-03-01_02-03-04"), "v.tar.zst")
		root, err := sessionRoot(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "2026-03-01_02-03-04"), root)
	})

	t.Run("ambiguous", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0755))
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0755))
		_, err := sessionRoot(dir)
		assert.Error(t, err)
	})
}
