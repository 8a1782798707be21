package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/stackkeeper/stackkeeper/internal/adapters/in/cli/ui/styles"
	"github.com/stackkeeper/stackkeeper/internal/app"
	"github.com/stackkeeper/stackkeeper/internal/domain"
)

func newRollbackCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <app>",
		Short: "Re-point an image to an earlier identity and recreate the application",
		Long: `Lists the recent image identities recorded for the application that are
still present locally, asks which one to restore, and recreates the
application on it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, needsCompose, func(ctx context.Context, k *app.Kernel) error {
				name := args[0]
				candidates, err := k.Rollback().Candidates(ctx, name)
				if err != nil {
					return err
				}

				labels := make([]string, len(candidates))
				for i, c := range candidates {
					labels[i] = candidateLabel(c)
				}
				index, err := opts.prompter.Select(fmt.Sprintf("Roll back %s to:", name), labels)
				if err != nil {
					return err
				}
				entry := candidates[index]

				ok, err := opts.prompter.Confirm(
					fmt.Sprintf("Tag %s as %s and recreate %s?", entry.ShortID(), entry.ImageName, name), false)
				if err != nil {
					return err
				}
				if !ok {
					writeLine(cmd.OutOrStdout(), renderMuted("Cancelled."))
					return nil
				}

				if _, err := k.Dispatcher().Dispatch(ctx, domain.RollbackAction{App: name, Entry: entry}); err != nil {
					return err
				}
				writeLine(cmd.OutOrStdout(), styles.RenderSuccess(
					fmt.Sprintf("Rolled back %s: %s is now %s", name, entry.ImageName, entry.ShortID())))
				return nil
			})
		},
	}
}

func candidateLabel(e domain.HistoryEntry) string {
	return fmt.Sprintf("%s  %s  %s (%s)",
		e.ShortID(),
		e.ImageName,
		e.Timestamp.Format(domain.HistoryTimeLayout),
		humanize.Time(e.Timestamp),
	)
}
