package cli

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"g2-yoyodex/internal/bootstrap"
	"g2-yoyodex/internal/images"
)

func newImagesCommand(opts *options) *cobra.Command {
	var (
		dir        string
		workers    int
		thumbWidth int
		offline    bool
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Mirror item images to disk",
		Long: `Downloads every item image to <dir>/<model>/<model>_<colorway>[_n].jpg.
Existing files are skipped, so an interrupted run can simply be repeated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				if err := load(ctx, app, offline); err != nil {
					return err
				}
				if dir == "" {
					dir = app.Config.Images.Dir
				}
				if workers > 0 {
					app.Config.Images.Workers = workers
				}
				if thumbWidth >= 0 {
					app.Config.Images.ThumbWidth = thumbWidth
				}

				tasks := images.Plan(app.Catalog.Items(), dir, app.Normalizer.Placeholder())
				out := cmd.OutOrStdout()
				if dryRun {
					if opts.json {
						return writeJSON(out, tasks)
					}
					for _, t := range tasks {
						fmt.Fprintf(out, "%s -> %s\n", t.URL, t.Path)
					}
					return nil
				}

				bar := progressbar.NewOptions(len(tasks),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionSetDescription("Downloading images"),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionShowIts(),
					progressbar.OptionSetItsString("images"),
					progressbar.OptionSetPredictTime(true),
					progressbar.OptionClearOnFinish(),
				)

				report, err := app.Downloader().Run(ctx, tasks, func(images.Result) {
					_ = bar.Add(1)
				})
				_ = bar.Finish()
				if err != nil {
					return err
				}

				if opts.json {
					return writeJSON(out, report)
				}
				fmt.Fprintf(out, "saved %d, skipped %d, failed %d\n", report.Saved, report.Skipped, report.Failed)
				for _, f := range report.Failures {
					fmt.Fprintf(out, "  failed: %s (%v)\n", f.Task.URL, f.Err)
				}
				return nil
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&dir, "dir", "", "Target directory (default from IMAGES_DIR)")
	fl.IntVar(&workers, "workers", 0, "Concurrent downloads (default from IMAGES_WORKERS)")
	fl.IntVar(&thumbWidth, "thumb-width", -1, "Thumbnail width, 0 to disable (default from IMAGES_THUMB_WIDTH)")
	fl.BoolVar(&offline, "offline", false, "Plan from the local cache only")
	fl.BoolVar(&dryRun, "dry-run", false, "Print the plan without downloading")
	return cmd
}
