// Package compose implements the compose runner adapter on top of the docker compose CLI.
package compose

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/bnema/zerowrap"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// MinVersion is the oldest docker compose release supported.
const MinVersion = "2.0.0"

// commandFunc runs the compose binary in dir and returns its combined output.
type commandFunc func(ctx context.Context, dir string, args ...string) ([]byte, error)

// Runner implements out.ComposeRunner by invoking "docker compose".
type Runner struct {
	binary  string
	timeout time.Duration
	run     commandFunc
	log     zerowrap.Logger
}

// NewRunner creates a new compose runner using the given docker binary.
func NewRunner(binary string, log zerowrap.Logger) *Runner {
	if binary == "" {
		binary = "docker"
	}
	r := &Runner{
		binary:  binary,
		timeout: 10 * time.Minute,
		log:     log,
	}
	r.run = r.execute
	return r
}

func (r *Runner) execute(ctx context.Context, dir string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, append([]string{"compose"}, args...)...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

func fileArgs(app domain.Application, args ...string) []string {
	return append([]string{"-f", app.ComposeFile}, args...)
}

func upArgs(app domain.Application, recreate bool) []string {
	args := fileArgs(app, "up", "-d")
	if recreate {
		args = append(args, "--force-recreate")
	}
	return args
}

// Up starts the application detached.
func (r *Runner) Up(ctx context.Context, app domain.Application, recreate bool) error {
	return r.invoke(ctx, app, "up", upArgs(app, recreate))
}

// Down stops and removes the application's containers. Volumes are kept.
func (r *Runner) Down(ctx context.Context, app domain.Application) error {
	return r.invoke(ctx, app, "down", fileArgs(app, "down"))
}

func (r *Runner) invoke(ctx context.Context, app domain.Application, action string, args []string) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:    "adapter",
		zerowrap.FieldAdapter:  "compose",
		zerowrap.FieldAction:   action,
		zerowrap.FieldEntityID: app.Name,
	})
	log := zerowrap.FromCtx(ctx)

	if !app.HasComposeFile() {
		return fmt.Errorf("%w: %s", domain.ErrComposeFileMissing, app.Name)
	}

	output, err := r.run(ctx, app.Dir, args...)
	if err != nil {
		return log.WrapErr(commandError(err, output), "docker compose "+action+" failed")
	}

	log.Debug().Str("output", strings.TrimSpace(string(output))).Msg("docker compose " + action + " completed")
	return nil
}

// IsRunning reports whether at least one service of the application is running.
func (r *Runner) IsRunning(ctx context.Context, app domain.Application) (bool, error) {
	if !app.HasComposeFile() {
		return false, nil
	}

	output, err := r.run(ctx, app.Dir, fileArgs(app, "ps", "--services", "--status", "running")...)
	if err != nil {
		return false, commandError(err, output)
	}
	return strings.TrimSpace(string(output)) != "", nil
}

// CheckVersion returns the installed compose version, failing with
// domain.ErrDependencyMissing when compose is absent or older than MinVersion.
func (r *Runner) CheckVersion(ctx context.Context) (string, error) {
	output, err := r.run(ctx, "", "version", "--short")
	if err != nil {
		return "", fmt.Errorf("%w: docker compose: %v", domain.ErrDependencyMissing, commandError(err, output))
	}

	raw := strings.TrimSpace(string(output))
	version, err := semver.NewVersion(raw)
	if err != nil {
		return "", fmt.Errorf("%w: unrecognized docker compose version %q", domain.ErrDependencyMissing, raw)
	}

	minimum := semver.MustParse(MinVersion)
	if version.LessThan(minimum) {
		return "", fmt.Errorf("%w: docker compose %s is older than %s", domain.ErrDependencyMissing, version, minimum)
	}

	r.log.Debug().
		Str(zerowrap.FieldLayer, "adapter").
		Str(zerowrap.FieldAdapter, "compose").
		Str("version", version.String()).
		Msg("docker compose available")

	return version.String(), nil
}

func commandError(err error, output []byte) error {
	msg := strings.TrimSpace(string(output))
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && msg != "" {
		return fmt.Errorf("%w: %s", err, msg)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %v", domain.ErrDependencyMissing, err)
	}
	return err
}
