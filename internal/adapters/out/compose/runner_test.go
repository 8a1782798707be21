package compose

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/zerowrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

type recordedCall struct {
	dir  string
	args []string
}

func newTestRunner(output string, err error) (*Runner, *[]recordedCall) {
	var calls []recordedCall
	r := NewRunner("docker", zerowrap.Default())
	r.run = func(_ context.Context, dir string, args ...string) ([]byte, error) {
		calls = append(calls, recordedCall{dir: dir, args: args})
		return []byte(output), err
	}
	return r, &calls
}

var testApp = domain.Application{Name: "web", Dir: "/srv/web", ComposeFile: "/srv/web/compose.yaml"}

func TestRunner_Up(t *testing.T) {
	tests := []struct {
		name     string
		recreate bool
		want     []string
	}{
		{"plain", false, []string{"-f", "/srv/web/compose.yaml", "up", "-d"}},
		{"recreate", true, []string{"-f", "/srv/web/compose.yaml", "up", "-d", "--force-recreate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, calls := newTestRunner("", nil)

			require.NoError(t, r.Up(context.Background(), testApp, tt.recreate))
			require.Len(t, *calls, 1)
			assert.Equal(t, "/srv/web", (*calls)[0].dir)
			assert.Equal(t, tt.want, (*calls)[0].args)
		})
	}
}

func TestRunner_Down(t *testing.T) {
	r, calls := newTestRunner("", nil)

	require.NoError(t, r.Down(context.Background(), testApp))
	assert.Equal(t, []string{"-f", "/srv/web/compose.yaml", "down"}, (*calls)[0].args)
}

func TestRunner_DownFailure(t *testing.T) {
	r, _ := newTestRunner("network in use", errors.New("exit status 1"))

	err := r.Down(context.Background(), testApp)
	require.Error(t, err)
}

func TestRunner_RequiresComposeFile(t *testing.T) {
	r, calls := newTestRunner("", nil)

	err := r.Up(context.Background(), domain.Application{Name: "bare", Dir: "/srv/bare"}, false)
	assert.ErrorIs(t, err, domain.ErrComposeFileMissing)
	assert.Empty(t, *calls)
}

func TestRunner_IsRunning(t *testing.T) {
	r, calls := newTestRunner("web\ndb\n", nil)
	running, err := r.IsRunning(context.Background(), testApp)
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, []string{"-f", "/srv/web/compose.yaml", "ps", "--services", "--status", "running"}, (*calls)[0].args)

	r, _ = newTestRunner("\n", nil)
	running, err = r.IsRunning(context.Background(), testApp)
	require.NoError(t, err)
	assert.False(t, running)
}

func TestRunner_CheckVersion(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		err     error
		want    string
		wantErr bool
	}{
		{name: "v2", output: "2.29.1\n", want: "2.29.1"},
		{name: "v prefix", output: "v2.24.0", want: "2.24.0"},
		{name: "too old", output: "1.29.2", wantErr: true},
		{name: "garbage", output: "unknown", wantErr: true},
		{name: "missing", err: errors.New("exec: not found"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRunner(tt.output, tt.err)

			got, err := r.CheckVersion(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrDependencyMissing)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
