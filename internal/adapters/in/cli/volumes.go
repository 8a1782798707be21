package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stackkeeper/stackkeeper/internal/adapters/in/cli/ui/components"
	"github.com/stackkeeper/stackkeeper/internal/adapters/in/cli/ui/styles"
	"github.com/stackkeeper/stackkeeper/internal/app"
	"github.com/stackkeeper/stackkeeper/internal/domain"
)

func newVolumesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "volumes",
		Short: "List volumes with the application owning each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, needsDocker, func(ctx context.Context, k *app.Kernel) error {
				volumes, err := k.Backup().ListVolumes(ctx)
				if err != nil {
					return err
				}
				if len(volumes) == 0 {
					writeLine(cmd.OutOrStdout(), renderMuted("No volumes found."))
					return nil
				}
				rows := make([][]string, 0, len(volumes))
				for _, v := range volumes {
					rows = append(rows, []string{v.Name, ownerLabel(v.Owner)})
				}
				writeLine(cmd.OutOrStdout(), components.NewTable(
					[]components.TableColumn{{Title: "Volume", Width: 48}, {Title: "Owner"}},
					rows,
				).Render())
				return nil
			})
		},
	}
}

func newBackupCmd(opts *rootOptions) *cobra.Command {
	var (
		target string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "backup [volume...]",
		Short: "Archive volumes, stopping each owning application around its volumes",
		Long: `Creates a new session directory under the backup target and writes one
compressed tar archive per non-empty volume. Volumes owned by a compose
application are archived while that application is stopped; it is started
again afterwards even when archiving fails.

Examples:
  stackkeeper backup nextcloud_db nextcloud_data
  stackkeeper backup --all --target /mnt/backups`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("name at least one volume, or use --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, needsCompose, func(ctx context.Context, k *app.Kernel) error {
				w := cmd.OutOrStdout()
				selected := args
				if all {
					volumes, err := k.Backup().ListVolumes(ctx)
					if err != nil {
						return err
					}
					for _, v := range volumes {
						selected = append(selected, v.Name)
					}
				}

				plan, err := k.Backup().Plan(ctx, selected)
				if err != nil {
					return err
				}
				printPlan(w, plan)
				if len(plan.Groups) > 0 {
					ok, err := opts.prompter.Confirm(
						fmt.Sprintf("%d application(s) will be stopped during backup. Continue?", len(plan.Groups)), true)
					if err != nil {
						return err
					}
					if !ok {
						writeLine(w, renderMuted("Cancelled."))
						return nil
					}
				}

				result, err := k.Dispatcher().Dispatch(ctx, domain.BackupAction{Volumes: selected, TargetRoot: target})
				if result != nil && result.Session != nil {
					printSession(w, *result.Session)
					if failed := result.Session.Failed(); len(failed) > 0 && err == nil {
						err = fmt.Errorf("%d volume(s) failed", len(failed))
					}
				}
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Backup root directory (default from config)")
	cmd.Flags().BoolVar(&all, "all", false, "Back up every volume")

	return cmd
}

func printPlan(w io.Writer, plan domain.BackupPlan) {
	writeLine(w, renderTitle(fmt.Sprintf("Backup plan: %d volume(s)", plan.VolumeCount())))
	for _, g := range plan.Groups {
		writeLine(w, styles.RenderListItem(fmt.Sprintf("%s: %s", g.Application, strings.Join(g.Volumes, ", "))))
	}
	if len(plan.Standalone) > 0 {
		writeLine(w, styles.RenderListItem("standalone: "+strings.Join(plan.Standalone, ", ")))
	}
}

func printSession(w io.Writer, s domain.BackupSession) {
	for _, r := range s.Results {
		switch r.Status {
		case domain.VolumeArchived:
			writeLine(w, styles.RenderSuccess(r.Volume))
		case domain.VolumeSkippedEmpty:
			writeLine(w, styles.RenderSkipped(r.Volume+" is empty"))
		default:
			writeLine(w, styles.RenderError(fmt.Sprintf("%s: %s", r.Volume, r.Error)))
		}
	}
	for application, msg := range s.Errors {
		writeLine(w, styles.RenderWarning(fmt.Sprintf("%s: %s", application, msg)))
	}
	writeLine(w, renderMeta("Session:", s.TargetDir))
	writeLine(w, renderMeta("Took:", s.Duration.Round(time.Second).String()))
}

func newRestoreCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <session-dir|archive.7z>",
		Short: "Restore volumes from a backup session or sealed archive",
		Long: `Restores every volume archive found in a session directory, or in a 7z
archive of one. Missing volumes are created. Overwriting a volume that holds
data requires confirmation. Owning applications are stopped while their
volumes are restored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, needsCompose, func(ctx context.Context, k *app.Kernel) error {
				result, err := k.Dispatcher().Dispatch(ctx, domain.RestoreAction{Source: args[0]})
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				failed := 0
				for _, r := range result.Restore {
					switch {
					case r.Restored:
						writeLine(w, styles.RenderSuccess(r.Volume+" restored"))
					case r.Skipped:
						writeLine(w, styles.RenderSkipped(r.Volume+" kept"))
					default:
						failed++
						writeLine(w, styles.RenderError(fmt.Sprintf("%s: %s", r.Volume, r.Error)))
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d volume(s) failed to restore", failed)
				}
				return nil
			})
		},
	}
}
