package app

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	outmocks "github.com/stackkeeper/stackkeeper/internal/boundaries/out/mocks"
)

func TestNewKernel(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, fmt.Sprintf("data_dir = %q\n\n[apps]\nroot = %q\n", tmpDir, filepath.Join(tmpDir, "apps")))

	kernel, err := NewKernel(path, outmocks.NewMockPrompter(t))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, kernel.Close()) })

	assert.NotNil(t, kernel.Apps())
	assert.NotNil(t, kernel.Updates())
	assert.NotNil(t, kernel.Rollback())
	assert.NotNil(t, kernel.Backup())
	assert.NotNil(t, kernel.Archive())
	assert.NotNil(t, kernel.Dispatcher())
	assert.Equal(t, tmpDir, kernel.Config().DataDir)
	assert.DirExists(t, filepath.Join(tmpDir, "logs"))
}
