package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	inmocks "github.com/stackkeeper/stackkeeper/internal/boundaries/in/mocks"
	"github.com/stackkeeper/stackkeeper/internal/domain"
)

type fixture struct {
	apps     *inmocks.MockAppService
	updates  *inmocks.MockUpdateService
	rollback *inmocks.MockRollbackService
	backup   *inmocks.MockBackupService
	archive  *inmocks.MockArchiveService
	handler  *Handler
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		apps:     inmocks.NewMockAppService(t),
		updates:  inmocks.NewMockUpdateService(t),
		rollback: inmocks.NewMockRollbackService(t),
		backup:   inmocks.NewMockBackupService(t),
		archive:  inmocks.NewMockArchiveService(t),
	}
	f.handler = NewHandler(f.apps, f.updates, f.rollback, f.backup, f.archive)
	return f
}

func TestDispatch_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.apps.On("Start", mock.Anything, "web").Return(nil).Once()
	f.apps.On("Stop", mock.Anything, "web").Return(errors.New("boom")).Once()

	result, err := f.handler.Dispatch(ctx, domain.StartAction{App: "web"})
	require.NoError(t, err)
	assert.Equal(t, "start", result.Kind)
	assert.Equal(t, "web", result.App)

	result, err = f.handler.Dispatch(ctx, domain.StopAction{App: "web"})
	assert.EqualError(t, err, "boom")
	assert.Equal(t, "stop", result.Kind)
}

func TestDispatch_Update(t *testing.T) {
	f := newFixture(t)
	want := &domain.UpdateResult{Application: "web", UpdateFound: true, Restarted: true}
	f.updates.On("Update", mock.Anything, "web", true).Return(want, nil).Once()

	result, err := f.handler.Dispatch(context.Background(), domain.UpdateAction{App: "web", Force: true})

	require.NoError(t, err)
	assert.Same(t, want, result.Update)
	assert.Nil(t, result.Session)
}

func TestDispatch_Rollback(t *testing.T) {
	f := newFixture(t)
	entry := domain.HistoryEntry{Timestamp: time.Now(), ImageName: "nginx:latest", ImageID: "sha256:abc"}
	f.rollback.On("Rollback", mock.Anything, "web", entry).Return(nil).Once()

	result, err := f.handler.Dispatch(context.Background(), domain.RollbackAction{App: "web", Entry: entry})

	require.NoError(t, err)
	assert.Equal(t, "rollback", result.Kind)
}

func TestDispatch_BackupRestoreArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session := &domain.BackupSession{ID: "s1"}
	f.backup.On("Backup", mock.Anything, []string{"v1"}, "/backups").Return(session, nil).Once()
	restored := []domain.RestoreResult{{Volume: "v1", Restored: true}}
	f.backup.On("Restore", mock.Anything, "/backups/s1").Return(restored, nil).Once()
	opts := domain.ArchiveOptions{SourceDir: "/backups/s1", Password: domain.PasswordNone}
	archived := &domain.ArchiveResult{Path: "/backups/backup.7z", Verified: true}
	f.archive.On("Create", mock.Anything, opts).Return(archived, nil).Once()

	result, err := f.handler.Dispatch(ctx, domain.BackupAction{Volumes: []string{"v1"}, TargetRoot: "/backups"})
	require.NoError(t, err)
	assert.Same(t, session, result.Session)

	result, err = f.handler.Dispatch(ctx, domain.RestoreAction{Source: "/backups/s1"})
	require.NoError(t, err)
	assert.Equal(t, restored, result.Restore)

	result, err = f.handler.Dispatch(ctx, domain.ArchiveAction{Options: opts})
	require.NoError(t, err)
	assert.Same(t, archived, result.Archive)
}

func TestDispatch_Nil(t *testing.T) {
	f := newFixture(t)

	_, err := f.handler.Dispatch(context.Background(), nil)

	assert.Error(t, err)
}
