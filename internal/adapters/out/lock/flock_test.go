package lock

import (
	"os"
	"strconv"
	"testing"

	"github.com/bnema/zerowrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

func TestFileLocker_AcquireRelease(t *testing.T) {
	locker := NewFileLocker(t.TempDir(), zerowrap.Default())

	release, err := locker.Acquire("web")
	require.NoError(t, err)

	data, err := os.ReadFile(locker.Path("web"))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, release())

	data, err = os.ReadFile(locker.Path("web"))
	require.NoError(t, err)
	assert.Empty(t, data)

	release, err = locker.Acquire("web")
	require.NoError(t, err)
	require.NoError(t, release())
}

func TestFileLocker_HeldLockFailsFast(t *testing.T) {
	dir := t.TempDir()
	holder := NewFileLocker(dir, zerowrap.Default())
	holder.pid = 4242

	release, err := holder.Acquire("web")
	require.NoError(t, err)
	defer func() { _ = release() }()

	// A separate locker opens its own descriptor, as another process would.
	_, err = NewFileLocker(dir, zerowrap.Default()).Acquire("web")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOperationInProgress)
	assert.Contains(t, err.Error(), "4242")
}

func TestFileLocker_IndependentNames(t *testing.T) {
	dir := t.TempDir()
	locker := NewFileLocker(dir, zerowrap.Default())

	releaseWeb, err := locker.Acquire("web")
	require.NoError(t, err)
	defer func() { _ = releaseWeb() }()

	releaseDB, err := locker.Acquire("db")
	require.NoError(t, err)
	require.NoError(t, releaseDB())
}

func TestFileLocker_RejectsInvalidName(t *testing.T) {
	_, err := NewFileLocker(t.TempDir(), zerowrap.Default()).Acquire("../escape")
	assert.Error(t, err)
}
