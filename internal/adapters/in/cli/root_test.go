package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackkeeper/stackkeeper/internal/app"
	"github.com/stackkeeper/stackkeeper/internal/boundaries/out"
	outmocks "github.com/stackkeeper/stackkeeper/internal/boundaries/out/mocks"
	"github.com/stackkeeper/stackkeeper/internal/domain"
	"github.com/stackkeeper/stackkeeper/pkg/version"
)

func testRoot(t *testing.T) (*cobra.Command, *bytes.Buffer, *int) {
	t.Helper()
	var buf bytes.Buffer
	calls := 0
	root := newRootCmd(&rootOptions{
		newKernel: func(string, out.Prompter) (*app.Kernel, error) {
			calls++
			return nil, errors.New("kernel not available in tests")
		},
		prompter: outmocks.NewMockPrompter(t),
		stdout:   &buf,
	})
	root.SetErr(&buf)
	return root, &buf, &calls
}

func TestRootCmd_Subcommands(t *testing.T) {
	root, _, _ := testRoot(t)

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{
		"list", "start", "stop", "update", "refresh-unused", "rollback",
		"volumes", "backup", "restore", "archive", "password", "version",
	} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestVersionCmd(t *testing.T) {
	version.Set("1.2.3", "abc123", "2026-03-01")
	root, buf, calls := testRoot(t)

	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())

	assert.Contains(t, buf.String(), "stackkeeper 1.2.3")
	assert.Contains(t, buf.String(), "abc123")
	assert.Zero(t, *calls)
}

func TestArgsValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"update needs a target", []string{"update"}, true},
		{"update all with name", []string{"update", "--all", "web"}, true},
		{"backup needs volumes", []string{"backup"}, true},
		{"backup all with names", []string{"backup", "--all", "v1"}, true},
		{"start needs exactly one app", []string{"start", "a", "b"}, true},
		{"update app reaches kernel", []string{"update", "web"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, _, calls := testRoot(t)
			root.SetArgs(tt.args)

			err := root.Execute()

			require.Error(t, err)
			if tt.name == "update app reaches kernel" {
				assert.Equal(t, 1, *calls)
				assert.ErrorContains(t, err, "kernel not available")
				return
			}
			assert.Zero(t, *calls, "kernel must not be built when arguments are invalid")
		})
	}
}

func TestArchiveFlags_Options(t *testing.T) {
	flags := archiveFlags{
		password: "session",
		naming:   "tagged",
		tag:      "weekly",
		split:    "4GB",
		level:    -1,
	}

	opts := flags.options("/backups/s1", 7)

	assert.Equal(t, domain.ArchiveOptions{
		SourceDir:        "/backups/s1",
		Password:         domain.PasswordSession,
		Naming:           domain.NamingTagged,
		Tag:              "weekly",
		SplitSize:        "4GB",
		CompressionLevel: 7,
	}, opts)

	flags.level = 0
	assert.Equal(t, 0, flags.options("/backups/s1", 7).CompressionLevel)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 130, exitCode(errors.Join(errInterrupted, errors.New("x"))))
	assert.Equal(t, 2, exitCode(fmt.Errorf("ping: %w", domain.ErrDaemonUnreachable)))
	assert.Equal(t, 2, exitCode(domain.ErrConfigInvalid))
	assert.Equal(t, 1, exitCode(domain.ErrPullFailed))
}

func TestRenderApplications(t *testing.T) {
	assert.Contains(t, renderApplications(nil), "No applications found.")

	rendered := renderApplications([]domain.Application{
		{Name: "web", Dir: "/srv/web", Running: true},
		{Name: "db", Dir: "/srv/db"},
	})
	assert.Contains(t, rendered, "web")
	assert.Contains(t, rendered, "running")
	assert.Contains(t, rendered, "stopped")
}

func TestPrintUpdateResult(t *testing.T) {
	var buf bytes.Buffer
	printUpdateResult(&buf, domain.UpdateResult{
		Application: "web",
		UpdateFound: true,
		Restarted:   true,
		Pulled: []domain.PullOutcome{
			{Image: "nginx:latest", Changed: true},
			{Image: "redis:7", Err: errors.New("timeout")},
		},
		Ignored: []string{"postgres:16"},
	})

	out := buf.String()
	assert.Contains(t, out, "web: updated and restarted")
	assert.Contains(t, out, "nginx:latest changed")
	assert.Contains(t, out, "redis:7: timeout")
	assert.Contains(t, out, "postgres:16")
}

func TestCandidateLabel(t *testing.T) {
	label := candidateLabel(domain.HistoryEntry{
		Timestamp: time.Now().Add(-2 * time.Hour),
		ImageName: "nginx:latest",
		ImageID:   "sha256:0123456789abcdef",
	})

	assert.Contains(t, label, "0123456789ab")
	assert.Contains(t, label, "nginx:latest")
	assert.Contains(t, label, "hours ago")
}
