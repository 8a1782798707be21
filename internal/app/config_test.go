package app

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stackkeeper.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestInitConfig_Defaults(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	_, cfg, err := initConfig(writeConfig(t, ""))

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "docker"), cfg.Apps.Root)
	assert.Equal(t, "apps", cfg.Apps.ManagedDir)
	assert.Equal(t, filepath.Join(home, "backups"), cfg.Backup.TargetRoot)
	assert.Equal(t, "zstd", cfg.Backup.Compressor)
	assert.Equal(t, "alpine:3.20", cfg.Backup.HelperImage)
	assert.Equal(t, 5, cfg.Archive.CompressionLevel)
	assert.Empty(t, cfg.Archive.SplitSize)
	assert.Empty(t, cfg.Update.IgnoreImages)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestInitConfig_FileValues(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfig(t, fmt.Sprintf(`data_dir = %q

[apps]
root = "/srv/stacks"
managed_dir = "/srv/managed"

[update]
ignore_images = ["postgres", "redis:7"]

[backup]
compressor = "gzip"

[archive]
compression_level = 9
split_size = "4GB"
`, dataDir))

	_, cfg, err := initConfig(path)

	require.NoError(t, err)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, "/srv/stacks", cfg.Apps.Root)
	assert.Equal(t, "/srv/managed", cfg.Apps.ManagedDir)
	assert.Equal(t, []string{"postgres", "redis:7"}, cfg.Update.IgnoreImages)
	assert.Equal(t, "gzip", cfg.Backup.Compressor)
	assert.Equal(t, 9, cfg.Archive.CompressionLevel)
	assert.Equal(t, "4GB", cfg.Archive.SplitSize)
	assert.Equal(t, filepath.Join(dataDir, "locks"), cfg.LocksDir())
}

func TestInitConfig_EnvOverride(t *testing.T) {
	t.Setenv("STACKKEEPER_BACKUP_TARGET_ROOT", "/mnt/backups")
	t.Setenv("STACKKEEPER_ARCHIVE_COMPRESSION_LEVEL", "1")

	_, cfg, err := initConfig(writeConfig(t, "[backup]\ntarget_root = \"/ignored\"\n"))

	require.NoError(t, err)
	assert.Equal(t, "/mnt/backups", cfg.Backup.TargetRoot)
	assert.Equal(t, 1, cfg.Archive.CompressionLevel)
}

func TestInitConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown compressor", "[backup]\ncompressor = \"xz\"\n"},
		{"level too high", "[archive]\ncompression_level = 10\n"},
		{"negative level", "[archive]\ncompression_level = -1\n"},
		{"bad split size", "[archive]\nsplit_size = \"big\"\n"},
		{"split size below one byte", "[archive]\nsplit_size = \"0.5B\"\n"},
		{"split size not a number", "[archive]\nsplit_size = \"nanMB\"\n"},
		{"malformed file", "[backup\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := initConfig(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, domain.ErrConfigInvalid)
		})
	}
}

func TestResolveLogFilePath(t *testing.T) {
	var cfg Config
	cfg.DataDir = "/data"
	assert.Equal(t, "/data/logs/stackkeeper.log", resolveLogFilePath(cfg))

	cfg.Logging.File.Path = "/var/log/sk.log"
	assert.Equal(t, "/var/log/sk.log", resolveLogFilePath(cfg))
}
