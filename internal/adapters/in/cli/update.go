package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackkeeper/stackkeeper/internal/adapters/in/cli/ui/styles"
	"github.com/stackkeeper/stackkeeper/internal/app"
	"github.com/stackkeeper/stackkeeper/internal/domain"
)

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		all   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "update [app]",
		Short: "Pull an application's images and restart it when they changed",
		Long: `Pulls every image declared by the application's compose file and
records changed image identities in its history. A running application is
recreated only when at least one image changed, or always with --force.

Examples:
  stackkeeper update nextcloud
  stackkeeper update --all --force`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("--all does not take an application name")
			}
			if !all && len(args) != 1 {
				return errors.New("requires an application name or --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, needsCompose, func(ctx context.Context, k *app.Kernel) error {
				w := cmd.OutOrStdout()
				if all {
					results, err := k.Updates().UpdateAll(ctx, force)
					for _, r := range results {
						printUpdateResult(w, r)
					}
					return err
				}

				result, err := k.Dispatcher().Dispatch(ctx, domain.UpdateAction{App: args[0], Force: force})
				if result != nil && result.Update != nil {
					printUpdateResult(w, *result.Update)
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Update every application")
	cmd.Flags().BoolVar(&force, "force", false, "Recreate even when no image changed, starting stopped applications")

	return cmd
}

func printUpdateResult(w io.Writer, r domain.UpdateResult) {
	switch {
	case r.Skipped:
		writeLine(w, styles.RenderSkipped(r.Application+": no compose file"))
		return
	case r.Restarted:
		writeLine(w, styles.RenderSuccess(r.Application+": updated and restarted"))
	case r.UpdateFound:
		writeLine(w, styles.RenderInfo(r.Application+": new images pulled, not running"))
	default:
		writeLine(w, styles.RenderInfo(r.Application+": up to date"))
	}
	for _, p := range r.Pulled {
		switch {
		case p.Err != nil:
			writeLine(w, "  "+styles.RenderError(fmt.Sprintf("%s: %v", p.Image, p.Err)))
		case p.Changed:
			writeLine(w, "  "+styles.RenderListItem(p.Image+" changed"))
		}
	}
	if len(r.Ignored) > 0 {
		writeLine(w, "  "+renderMeta("ignored:", strings.Join(r.Ignored, ", ")))
	}
}

func newRefreshUnusedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-unused",
		Short: "Pull newer versions of tagged images no container uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, needsDocker, func(ctx context.Context, k *app.Kernel) error {
				outcomes, err := k.Updates().RefreshUnused(ctx)
				w := cmd.OutOrStdout()
				if len(outcomes) == 0 && err == nil {
					writeLine(w, renderMuted("No unused images."))
					return nil
				}
				for _, o := range outcomes {
					switch {
					case o.Err != nil:
						writeLine(w, styles.RenderError(fmt.Sprintf("%s: %v", o.Image, o.Err)))
					case o.Changed:
						writeLine(w, styles.RenderSuccess(o.Image+" updated"))
					default:
						writeLine(w, renderMuted(o.Image+" up to date"))
					}
				}
				return err
			})
		},
	}
}
