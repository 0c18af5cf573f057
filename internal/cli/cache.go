package cli

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"g2-yoyodex/internal/bootstrap"
)

func newCacheCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect, purge or sweep the local cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "List stored dataset entries",
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
					entries, err := app.Datasets.Entries(ctx)
					if err != nil {
						return err
					}
					if opts.json {
						return writeJSON(cmd.OutOrStdout(), entries)
					}
					tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "KEY\tRECORDS\tAGE\tCURRENT\tVALID")
					for _, e := range entries {
						age := time.Duration(0)
						if !e.FetchedAt.IsZero() {
							age = time.Since(e.FetchedAt)
						}
						fmt.Fprintf(tw, "%s\t%d\t%s\t%t\t%t\n", e.Key, e.Records, formatAge(age), e.Current, e.Valid)
					}
					return tw.Flush()
				})
			},
		},
		&cobra.Command{
			Use:   "purge",
			Short: "Delete every cached dataset; annotations are kept",
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
					n, err := app.Datasets.Purge(ctx)
					if err != nil {
						return err
					}
					if opts.json {
						return writeJSON(cmd.OutOrStdout(), map[string]int{"purged": n})
					}
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "purged %d dataset entries\n", n)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Remove expired, corrupt and outdated entries",
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
					removed, err := app.Cleanup.RunNow(ctx)
					if err != nil {
						return err
					}
					if opts.json {
						return writeJSON(cmd.OutOrStdout(), removed)
					}
					names := make([]string, 0, len(removed))
					for name := range removed {
						names = append(names, name)
					}
					sort.Strings(names)
					for _, name := range names {
						if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: removed %d\n", name, removed[name]); err != nil {
							return err
						}
					}
					return nil
				})
			},
		},
	)
	return cmd
}
