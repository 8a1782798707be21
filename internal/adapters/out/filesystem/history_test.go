package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bnema/zerowrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

func testLogger() zerowrap.Logger {
	return zerowrap.Default()
}

func newTestHistoryStore() *HistoryStore {
	s := NewHistoryStore(testLogger())
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	calls := 0
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}
	return s
}

func TestHistoryStore_AppendAndReadRecent(t *testing.T) {
	dir := t.TempDir()
	s := newTestHistoryStore()

	require.NoError(t, s.Append(dir, "nginx:latest", "sha256:aaa"))
	require.NoError(t, s.Append(dir, "nginx:latest", "sha256:bbb"))

	entries, err := s.ReadRecent(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sha256:bbb", entries[0].ImageID)
	assert.Equal(t, "sha256:aaa", entries[1].ImageID)
	assert.Equal(t, "nginx:latest", entries[0].ImageName)
	assert.True(t, entries[0].Timestamp.After(entries[1].Timestamp))

	data, err := os.ReadFile(filepath.Join(dir, domain.HistoryFileName))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01 09:01:00|nginx:latest|sha256:aaa\n2026-03-01 09:02:00|nginx:latest|sha256:bbb\n", string(data))
}

func TestHistoryStore_SkipsConsecutiveDuplicate(t *testing.T) {
	dir := t.TempDir()
	s := newTestHistoryStore()

	require.NoError(t, s.Append(dir, "redis:7", "sha256:aaa"))
	require.NoError(t, s.Append(dir, "redis:7", "sha256:aaa"))

	entries, err := s.ReadRecent(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// A non-consecutive repeat is recorded.
	require.NoError(t, s.Append(dir, "postgres:16", "sha256:ccc"))
	require.NoError(t, s.Append(dir, "redis:7", "sha256:aaa"))

	entries, err = s.ReadRecent(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestHistoryStore_SkipsUnknownID(t *testing.T) {
	dir := t.TempDir()
	s := newTestHistoryStore()

	require.NoError(t, s.Append(dir, "redis:7", ""))
	require.NoError(t, s.Append(dir, "redis:7", "   "))

	_, err := os.Stat(filepath.Join(dir, domain.HistoryFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestHistoryStore_TruncatesToLimit(t *testing.T) {
	dir := t.TempDir()
	s := newTestHistoryStore()

	for i := 0; i < domain.HistoryLimit+7; i++ {
		require.NoError(t, s.Append(dir, "app:latest", fmt.Sprintf("sha256:%03d", i)))
	}

	entries, err := s.ReadRecent(dir)
	require.NoError(t, err)
	require.Len(t, entries, domain.HistoryLimit)
	assert.Equal(t, fmt.Sprintf("sha256:%03d", domain.HistoryLimit+6), entries[0].ImageID)
	assert.Equal(t, "sha256:007", entries[len(entries)-1].ImageID)

	_, err = os.Stat(filepath.Join(dir, domain.HistoryFileName+".tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestHistoryStore_ReadRecentSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	content := strings.Join([]string{
		"2026-03-01 09:00:00|nginx:latest|sha256:aaa",
		"garbage",
		"not-a-date|nginx:latest|sha256:bbb",
		"2026-03-01 09:05:00|nginx:latest|",
		"2026-03-01 09:10:00|nginx:latest|sha256:ccc",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.HistoryFileName), []byte(content), 0644))

	entries, err := NewHistoryStore(testLogger()).ReadRecent(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sha256:ccc", entries[0].ImageID)
	assert.Equal(t, "sha256:aaa", entries[1].ImageID)
}

func TestHistoryStore_ReadRecentMissingFile(t *testing.T) {
	entries, err := NewHistoryStore(testLogger()).ReadRecent(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
