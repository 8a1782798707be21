package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/stackkeeper/stackkeeper/internal/adapters/in/cli/ui/styles"
	"github.com/stackkeeper/stackkeeper/internal/app"
	"github.com/stackkeeper/stackkeeper/internal/domain"
)

type archiveFlags struct {
	password string
	naming   string
	tag      string
	custom   string
	split    string
	level    int
	output   string
}

// options builds the archive options; a level of -1 takes the configured default.
func (f archiveFlags) options(sourceDir string, defaultLevel int) domain.ArchiveOptions {
	level := f.level
	if level < 0 {
		level = defaultLevel
	}
	return domain.ArchiveOptions{
		SourceDir:        sourceDir,
		OutputDir:        f.output,
		Password:         domain.PasswordMode(f.password),
		Naming:           domain.NamingMode(f.naming),
		Tag:              f.tag,
		CustomName:       f.custom,
		SplitSize:        f.split,
		CompressionLevel: level,
	}
}

func newArchiveCmd(opts *rootOptions) *cobra.Command {
	var flags archiveFlags

	cmd := &cobra.Command{
		Use:   "archive <session-dir>",
		Short: "Seal a backup session into a verified 7z archive",
		Long: `Compresses a backup session directory into a 7z archive, optionally
encrypted (file names included) and split into volumes, then tests the
archive. Only after a successful test is deleting the session offered.

Password modes:
  none     no encryption
  session  enter a password now (asked twice)
  stored   use the default password saved with "stackkeeper password set"

Without --password the mode is asked for.

Examples:
  stackkeeper archive ~/backups/2026-03-01_02-03-04
  stackkeeper archive ~/backups/2026-03-01_02-03-04 --password session --name tagged --tag weekly --split 4GB`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, needsNothing, func(ctx context.Context, k *app.Kernel) error {
				w := cmd.OutOrStdout()
				k.OnArchiveOutput(func(line domain.OutputLine) {
					writeLine(w, renderOutputLine(line))
				})

				action := domain.ArchiveAction{Options: flags.options(args[0], k.Config().Archive.CompressionLevel)}
				result, err := k.Dispatcher().Dispatch(ctx, action)
				if err != nil {
					return err
				}
				printArchiveResult(cmd, result.Archive)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flags.password, "password", "", "Password mode: none, session, stored (asked when omitted)")
	cmd.Flags().StringVar(&flags.naming, "name", string(domain.NamingDefault), "Naming: default, tagged, custom, precise")
	cmd.Flags().StringVar(&flags.tag, "tag", "", "Tag for --name tagged")
	cmd.Flags().StringVar(&flags.custom, "custom", "", "File name for --name custom")
	cmd.Flags().StringVar(&flags.split, "split", "", "Split into volumes of this size, e.g. 500MB or 4GB")
	cmd.Flags().IntVar(&flags.level, "level", -1, "Compression level 0-9 (default from config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Directory for the archive (default: next to the session)")

	return cmd
}

func printArchiveResult(cmd *cobra.Command, r *domain.ArchiveResult) {
	if r == nil {
		return
	}
	w := cmd.OutOrStdout()
	writeLine(w, styles.RenderSuccess("Archive verified: "+filepath.Base(r.Path)))
	writeLine(w, renderMeta("Path:", r.Path))
	writeLine(w, renderMeta("Size:", humanize.IBytes(uint64(r.SizeBytes))))
	if len(r.Parts) > 1 {
		writeLine(w, renderMeta("Parts:", fmt.Sprintf("%d", len(r.Parts))))
	}
	if r.Encrypted {
		writeLine(w, renderMeta("Encryption:", "AES-256, headers encrypted"))
	}
	if r.SourceDeleted {
		writeLine(w, renderMuted("Session directory deleted."))
	}
}

func newPasswordCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Manage the default archive password",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Encrypt and store a default archive password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, needsNothing, func(ctx context.Context, k *app.Kernel) error {
				first, err := opts.prompter.Password("New archive password")
				if err != nil {
					return err
				}
				second, err := opts.prompter.Password("Confirm password")
				if err != nil {
					clear(first)
					return err
				}
				match := string(first) == string(second)
				clear(second)
				if !match {
					clear(first)
					return fmt.Errorf("%w: passwords do not match", domain.ErrUserCancelled)
				}
				if err := k.Archive().SetDefaultPassword(ctx, first); err != nil {
					return err
				}
				writeLine(cmd.OutOrStdout(), styles.RenderSuccess("Default archive password saved."))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored default archive password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, needsNothing, func(ctx context.Context, k *app.Kernel) error {
				if err := k.Archive().ClearDefaultPassword(ctx); err != nil {
					return err
				}
				writeLine(cmd.OutOrStdout(), styles.RenderSuccess("Default archive password cleared."))
				return nil
			})
		},
	})

	return cmd
}
