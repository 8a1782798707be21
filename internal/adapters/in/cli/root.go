// Package cli implements the CLI adapter.
// Commands build domain actions and hand them to the app kernel.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stackkeeper/stackkeeper/internal/adapters/in/cli/ui/styles"
	"github.com/stackkeeper/stackkeeper/internal/adapters/out/prompt"
	"github.com/stackkeeper/stackkeeper/internal/app"
	"github.com/stackkeeper/stackkeeper/internal/boundaries/out"
	"github.com/stackkeeper/stackkeeper/internal/domain"
	"github.com/stackkeeper/stackkeeper/pkg/version"
)

const helperCleanupTimeout = 30 * time.Second

// errInterrupted reports a run stopped by SIGINT or SIGTERM.
var errInterrupted = errors.New("interrupted")

// requirement says which external tools a command needs before it runs.
type requirement int

const (
	needsNothing requirement = iota
	needsDocker
	needsCompose
)

// kernelFactory builds the kernel for one command run. Tests replace it.
type kernelFactory func(configPath string, prompter out.Prompter) (*app.Kernel, error)

type rootOptions struct {
	configPath string
	newKernel  kernelFactory
	prompter   out.Prompter
	stdout     io.Writer
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{
		newKernel: app.NewKernel,
		prompter:  prompt.NewSurvey(),
		stdout:    os.Stdout,
	})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stackkeeper",
		Short: "Keep Docker Compose applications updated and their volumes backed up",
		Long: `stackkeeper manages the Docker Compose applications found under a root
directory: it updates their images with rollback history, backs up and
restores named volumes while their owners are stopped, and seals backup
sessions into verified, optionally encrypted 7z archives.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(opts.stdout)
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newStartCmd(opts))
	rootCmd.AddCommand(newStopCmd(opts))
	rootCmd.AddCommand(newUpdateCmd(opts))
	rootCmd.AddCommand(newRefreshUnusedCmd(opts))
	rootCmd.AddCommand(newRollbackCmd(opts))
	rootCmd.AddCommand(newVolumesCmd(opts))
	rootCmd.AddCommand(newBackupCmd(opts))
	rootCmd.AddCommand(newRestoreCmd(opts))
	rootCmd.AddCommand(newArchiveCmd(opts))
	rootCmd.AddCommand(newPasswordCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, styles.RenderError(err.Error()))
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, errInterrupted):
		return 130
	case domain.IsFatal(err), errors.Is(err, domain.ErrConfigInvalid):
		return 2
	default:
		return 1
	}
}

// withKernel builds the kernel, runs the preflight the command needs, and
// calls fn. An interrupted run removes leftover helper containers.
func withKernel(cmd *cobra.Command, opts *rootOptions, needs requirement, fn func(context.Context, *app.Kernel) error) error {
	kernel, err := opts.newKernel(opts.configPath, opts.prompter)
	if err != nil {
		return err
	}
	defer kernel.Close()

	ctx := kernel.Context(cmd.Context())
	if needs != needsNothing {
		if err := kernel.Preflight(ctx, needs == needsCompose); err != nil {
			return err
		}
	}

	err = fn(ctx, kernel)
	if ctx.Err() == nil {
		return err
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), helperCleanupTimeout)
	defer cancel()
	if needs != needsNothing {
		if stopErr := kernel.StopHelpers(cleanupCtx); stopErr != nil {
			fmt.Fprintln(os.Stderr, styles.RenderWarning("failed to remove helper containers: "+stopErr.Error()))
		}
	}
	return errors.Join(errInterrupted, err)
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("stackkeeper %s\n", version.Version())
			cmd.Printf("Commit: %s\n", version.Commit())
			cmd.Printf("Build Date: %s\n", version.BuildDate())
		},
	}
}
