package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/zerowrap"
	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// Mount points inside helper containers.
const (
	helperSourceDir = "/source"
	helperBackupDir = "/backup"
	helperTargetDir = "/target"
)

// helperSpec describes one short-lived helper container run.
type helperSpec struct {
	volume   string
	readOnly bool
	mountAt  string
	hostDir  string
	env      []string
	script   string
}

// helperResult is the captured outcome of a helper run.
type helperResult struct {
	exitCode int64
	stdout   []byte
	stderr   []byte
}

// emptyCheckScript prints the first entry of the volume, if any.
const emptyCheckScript = `ls -A ` + helperSourceDir + ` | head -n 1`

// archiveScript returns the shell script streaming /source into $ARCHIVE.
func archiveScript(c domain.Compressor) string {
	switch c {
	case domain.CompressorGzip:
		return `set -e; tar -C ` + helperSourceDir + ` -czf "$ARCHIVE" .`
	default:
		return `set -e -o pipefail; command -v zstd >/dev/null 2>&1 || apk add --no-cache zstd >/dev/null; ` +
			`tar -C ` + helperSourceDir + ` -cf - . | zstd -q -T0 -f -o "$ARCHIVE"`
	}
}

// extractScript returns the shell script replacing /target with the contents of $ARCHIVE.
func extractScript(c domain.Compressor) string {
	wipe := `find ` + helperTargetDir + ` -mindepth 1 -maxdepth 1 -exec rm -rf {} +; `
	switch c {
	case domain.CompressorGzip:
		return `set -e; ` + wipe + `tar -C ` + helperTargetDir + ` -xzf "$ARCHIVE"`
	default:
		return `set -e -o pipefail; command -v zstd >/dev/null 2>&1 || apk add --no-cache zstd >/dev/null; ` +
			wipe + `zstd -q -dc "$ARCHIVE" | tar -C ` + helperTargetDir + ` -xf -`
	}
}

// IsEmpty reports whether the volume holds no entries.
func (e *Engine) IsEmpty(ctx context.Context, volumeName string) (bool, error) {
	res, err := e.runHelper(ctx, "IsEmpty", helperSpec{
		volume:   volumeName,
		readOnly: true,
		mountAt:  helperSourceDir,
		script:   emptyCheckScript,
	})
	if err != nil {
		return false, err
	}
	if res.exitCode != 0 {
		return false, fmt.Errorf("empty check for volume %s exited with %d: %s", volumeName, res.exitCode, strings.TrimSpace(string(res.stderr)))
	}
	return strings.TrimSpace(string(res.stdout)) == "", nil
}

// Archive writes the volume as dir/<volume>.tar.<ext> and returns the file path.
func (e *Engine) Archive(ctx context.Context, volumeName, dir string, compressor domain.Compressor) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve backup directory: %w", err)
	}

	fileName := compressor.ArchiveFileName(volumeName)
	res, err := e.runHelper(ctx, "Archive", helperSpec{
		volume:   volumeName,
		readOnly: true,
		mountAt:  helperSourceDir,
		hostDir:  absDir,
		env:      []string{"ARCHIVE=" + helperBackupDir + "/" + fileName},
		script:   archiveScript(compressor),
	})
	if err != nil {
		return "", err
	}
	if res.exitCode != 0 {
		return "", fmt.Errorf("archiving volume %s exited with %d: %s", volumeName, res.exitCode, strings.TrimSpace(string(res.stderr)))
	}

	path := filepath.Join(absDir, fileName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("archive for volume %s not produced: %w", volumeName, err)
	}
	return path, nil
}

// Extract replaces the volume contents with the given archive file.
func (e *Engine) Extract(ctx context.Context, archivePath, volumeName string, compressor domain.Compressor) error {
	absPath, err := filepath.Abs(archivePath)
	if err != nil {
		return fmt.Errorf("failed to resolve archive path: %w", err)
	}

	res, err := e.runHelper(ctx, "Extract", helperSpec{
		volume:  volumeName,
		mountAt: helperTargetDir,
		hostDir: filepath.Dir(absPath),
		env:     []string{"ARCHIVE=" + helperBackupDir + "/" + filepath.Base(absPath)},
		script:  extractScript(compressor),
	})
	if err != nil {
		return err
	}
	if res.exitCode != 0 {
		return fmt.Errorf("restoring volume %s exited with %d: %s", volumeName, res.exitCode, strings.TrimSpace(string(res.stderr)))
	}
	return nil
}

// StopHelpers stops and removes every container carrying the helper label.
func (e *Engine) StopHelpers(ctx context.Context) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "docker",
		zerowrap.FieldAction:  "StopHelpers",
	})
	log := zerowrap.FromCtx(ctx)

	containers, err := e.client.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", domain.LabelHelper+"=true")),
	})
	if err != nil {
		return log.WrapErr(err, "failed to list helper containers")
	}

	var firstErr error
	for _, c := range containers {
		if err := e.client.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil && !cerrdefs.IsNotFound(err) {
			log.Warn().Err(err).Str(zerowrap.FieldEntityID, c.ID).Msg("failed to remove helper container")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Info().Str(zerowrap.FieldEntityID, c.ID).Msg("helper container stopped")
	}
	return firstErr
}

func (e *Engine) ensureHelperImage(ctx context.Context) error {
	log := zerowrap.FromCtx(ctx)

	if _, err := e.client.ImageInspect(ctx, e.helperImage); err == nil {
		return nil
	} else if !cerrdefs.IsNotFound(err) {
		return log.WrapErr(err, "failed to inspect helper image")
	}

	log.Info().Str("image", e.helperImage).Msg("pulling helper image")
	reader, err := e.client.ImagePull(ctx, e.helperImage, image.PullOptions{})
	if err != nil {
		return log.WrapErr(err, "failed to pull helper image")
	}
	defer reader.Close()

	if _, err := io.Copy(io.Discard, reader); err != nil {
		return log.WrapErr(err, "failed to read helper image pull response")
	}
	return nil
}

// runHelper creates, runs to completion, and removes one helper container.
func (e *Engine) runHelper(ctx context.Context, action string, spec helperSpec) (*helperResult, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "adapter",
		zerowrap.FieldAdapter: "docker",
		zerowrap.FieldAction:  action,
		"volume":              spec.volume,
	})
	log := zerowrap.FromCtx(ctx)

	if err := e.ensureHelperImage(ctx); err != nil {
		return nil, err
	}

	mounts := []mount.Mount{{
		Type:     mount.TypeVolume,
		Source:   spec.volume,
		Target:   spec.mountAt,
		ReadOnly: spec.readOnly,
	}}
	if spec.hostDir != "" {
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeBind,
			Source: spec.hostDir,
			Target: helperBackupDir,
		})
	}

	resp, err := e.client.ContainerCreate(ctx,
		&container.Config{
			Image: e.helperImage,
			Cmd:   []string{"sh", "-c", spec.script},
			Env:   spec.env,
			Labels: map[string]string{
				domain.LabelHelper:       "true",
				domain.LabelHelperVolume: spec.volume,
			},
		},
		&container.HostConfig{Mounts: mounts},
		nil, nil, "")
	if err != nil {
		return nil, log.WrapErr(err, "failed to create helper container")
	}

	defer func() {
		// Removal must survive a cancelled run context.
		if err := e.client.ContainerRemove(context.WithoutCancel(ctx), resp.ID, container.RemoveOptions{Force: true}); err != nil && !cerrdefs.IsNotFound(err) {
			log.Warn().Err(err).Str(zerowrap.FieldEntityID, resp.ID).Msg("failed to remove helper container")
		}
	}()

	if err := e.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, log.WrapErr(err, "failed to start helper container")
	}

	statusCh, errCh := e.client.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case err := <-errCh:
		if err != nil {
			return nil, log.WrapErr(err, "failed waiting for helper container")
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	logs, err := e.client.ContainerLogs(ctx, resp.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, log.WrapErr(err, "failed to read helper output")
	}
	defer logs.Close()

	stdout, stderr, err := parseHelperOutput(logs)
	if err != nil {
		return nil, log.WrapErr(err, "failed to demultiplex helper output")
	}

	log.Debug().Int64("exit_code", exitCode).Msg("helper container finished")
	return &helperResult{exitCode: exitCode, stdout: stdout, stderr: stderr}, nil
}

// parseHelperOutput splits the multiplexed log stream of a non-TTY container.
func parseHelperOutput(r io.Reader) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, r); err != nil {
		return nil, nil, err
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}
