// Package sevenzip implements the archiver adapter on top of the 7z command line tool.
package sevenzip

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"

	"github.com/bnema/zerowrap"

	"github.com/stackkeeper/stackkeeper/internal/boundaries/out"
	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// commandFunc runs the archiver with args, feeding stdin and streaming output to w.
type commandFunc func(ctx context.Context, args []string, stdin io.Reader, w io.Writer) error

// Archiver implements out.Archiver using 7z.
type Archiver struct {
	binary string
	run    commandFunc
	log    zerowrap.Logger
}

// NewArchiver creates a new 7z archiver.
func NewArchiver(binary string, log zerowrap.Logger) *Archiver {
	if binary == "" {
		binary = "7z"
	}
	a := &Archiver{binary: binary, log: log}
	a.run = a.execute
	return a
}

func (a *Archiver) execute(ctx context.Context, args []string, stdin io.Reader, w io.Writer) error {
	if w == nil {
		w = io.Discard
	}
	cmd := exec.CommandContext(ctx, a.binary, args...)
	cmd.Stdin = stdin
	cmd.Stdout = w
	cmd.Stderr = w
	return cmd.Run()
}

// Available reports whether the 7z binary is on PATH.
func (a *Archiver) Available() bool {
	_, err := exec.LookPath(a.binary)
	return err == nil
}

func createArgs(req out.ArchiveRequest) []string {
	level := req.CompressionLevel
	if level < 0 || level > 9 {
		level = 5
	}
	args := []string{"a", "-t7z", "-mx=" + strconv.Itoa(level), "-bb1", "-y"}
	if req.SplitFlag != "" {
		args = append(args, "-v"+req.SplitFlag)
	}
	if len(req.Password) > 0 {
		// A bare -p makes 7z read the password from stdin.
		args = append(args, "-p", "-mhe=on")
	}
	return append(args, req.ArchivePath, req.SourceDir)
}

// passwordInput returns stdin bytes answering the given number of password
// prompts, or nil when there is no password. The caller zeroes the result.
func passwordInput(password []byte, prompts int) []byte {
	if len(password) == 0 {
		return nil
	}
	buf := make([]byte, 0, (len(password)+1)*prompts)
	for range prompts {
		buf = append(buf, password...)
		buf = append(buf, '\n')
	}
	return buf
}

// runWithInput runs the archiver with input on stdin and zeroes input afterwards.
func (a *Archiver) runWithInput(ctx context.Context, args []string, input []byte, w io.Writer) error {
	defer clear(input)
	var stdin io.Reader
	if input != nil {
		stdin = bytes.NewReader(input)
	}
	return a.run(ctx, args, stdin, w)
}

// Create writes the archive, streaming tool output to w. The password is fed on stdin.
func (a *Archiver) Create(ctx context.Context, req out.ArchiveRequest, w io.Writer) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:    "adapter",
		zerowrap.FieldAdapter:  "sevenzip",
		zerowrap.FieldAction:   "create",
		zerowrap.FieldEntityID: req.ArchivePath,
	})
	log := zerowrap.FromCtx(ctx)

	log.Info().
		Str("source", req.SourceDir).
		Bool("encrypted", len(req.Password) > 0).
		Str("split", req.SplitFlag).
		Msg("creating archive")

	// 7z asks for the password and then for its confirmation.
	if err := a.runWithInput(ctx, createArgs(req), passwordInput(req.Password, 2), w); err != nil {
		return log.WrapErr(fmt.Errorf("%w: %v", domain.ErrArchiveCreation, err), "7z archive creation failed")
	}
	return nil
}

// Test verifies the archive. The password never appears on the command line.
func (a *Archiver) Test(ctx context.Context, archivePath string, password []byte, w io.Writer) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:    "adapter",
		zerowrap.FieldAdapter:  "sevenzip",
		zerowrap.FieldAction:   "test",
		zerowrap.FieldEntityID: archivePath,
	})
	log := zerowrap.FromCtx(ctx)

	if err := a.runWithInput(ctx, []string{"t", archivePath}, passwordInput(password, 1), w); err != nil {
		return log.WrapErr(fmt.Errorf("%w: %v", domain.ErrArchiveVerification, err), "7z archive test failed")
	}

	log.Info().Msg("archive verified")
	return nil
}

// Extract unpacks the archive into dest. The password is fed on stdin.
func (a *Archiver) Extract(ctx context.Context, archivePath, dest string, password []byte, w io.Writer) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:    "adapter",
		zerowrap.FieldAdapter:  "sevenzip",
		zerowrap.FieldAction:   "extract",
		zerowrap.FieldEntityID: archivePath,
	})
	log := zerowrap.FromCtx(ctx)

	args := []string{"x", "-y", "-o" + dest, archivePath}
	if err := a.runWithInput(ctx, args, passwordInput(password, 1), w); err != nil {
		return log.WrapErr(err, "7z archive extraction failed")
	}
	return nil
}
