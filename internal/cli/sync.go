package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"g2-yoyodex/internal/bootstrap"
)

func newSyncCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the cached datasets from the remote source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				app.Engine.Refresh(ctx)
				status := app.Engine.Status()

				if opts.json {
					return writeJSON(cmd.OutOrStdout(), status)
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RESOURCE\tSTATE\tRECORDS\tFROM CACHE\tCHANGES\tERROR")
				for _, rs := range status.Resources {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\t%s\n",
						rs.Resource, rs.State, rs.Records, rs.FromCache, orDash(rs.LastChanges), orDash(rs.LastError))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if status.LoadFailed {
					return fmt.Errorf("catalog could not be loaded and no cached copy exists")
				}
				return nil
			})
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatAge(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
