package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackkeeper/stackkeeper/internal/adapters/in/cli/ui/components"
	"github.com/stackkeeper/stackkeeper/internal/adapters/in/cli/ui/styles"
	"github.com/stackkeeper/stackkeeper/internal/app"
	"github.com/stackkeeper/stackkeeper/internal/domain"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List applications with their running state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, needsCompose, func(ctx context.Context, k *app.Kernel) error {
				applications, err := k.Apps().List(ctx)
				if err != nil {
					return err
				}
				writeLine(cmd.OutOrStdout(), renderApplications(applications))
				return nil
			})
		},
	}
}

func renderApplications(applications []domain.Application) string {
	if len(applications) == 0 {
		return renderMuted("No applications found.")
	}
	rows := make([][]string, 0, len(applications))
	for _, a := range applications {
		state := "stopped"
		if a.Running {
			state = "running"
		}
		rows = append(rows, []string{a.Name, styles.RenderBadge(state), a.Dir})
	}
	return components.NewTable(
		[]components.TableColumn{{Title: "Application"}, {Title: "State"}, {Title: "Directory"}},
		rows,
	).Render()
}

func newStartCmd(opts *rootOptions) *cobra.Command {
	return newLifecycleCmd(opts, "start", "Start an application", func(name string) domain.Action {
		return domain.StartAction{App: name}
	})
}

func newStopCmd(opts *rootOptions) *cobra.Command {
	return newLifecycleCmd(opts, "stop", "Stop an application", func(name string) domain.Action {
		return domain.StopAction{App: name}
	})
}

func newLifecycleCmd(opts *rootOptions, verb, short string, action func(string) domain.Action) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <app>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKernel(cmd, opts, needsCompose, func(ctx context.Context, k *app.Kernel) error {
				if _, err := k.Dispatcher().Dispatch(ctx, action(args[0])); err != nil {
					return err
				}
				writeLine(cmd.OutOrStdout(), styles.RenderSuccess(fmt.Sprintf("%s: %s done", args[0], verb)))
				return nil
			})
		},
	}
}
