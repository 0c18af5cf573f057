// Package cli implements the yoyodex command line tool.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"g2-yoyodex/internal/bootstrap"
	"g2-yoyodex/internal/config"
	"g2-yoyodex/internal/logger"
)

// Opener builds the application for a command. Tests replace it.
type Opener func(cfg *config.Config, log *logger.Logger) (*bootstrap.App, error)

type options struct {
	open    Opener
	verbose bool
	json    bool
}

// NewRootCommand returns the yoyodex command tree.
func NewRootCommand(version string, open Opener) *cobra.Command {
	if open == nil {
		open = bootstrap.Open
	}
	opts := &options{open: open}

	root := &cobra.Command{
		Use:     "yoyodex",
		Short:   "Collectible yoyo catalog tool",
		Version: version,
		Long: `
yoyodex keeps a local copy of the yoyo catalog and answers queries against it.

COMMANDS:
  sync        Refresh the cached datasets from the remote source
  query       Search, filter and sort the catalog
  cache       Inspect, purge or sweep the local cache
  images      Mirror item images to disk
  parse-caption  Extract catalog fields from release captions
  version     Print version information

EXAMPLES:
  yoyodex sync
  yoyodex query --model loadout --sort date
  yoyodex cache purge
  yoyodex images --dir ./assets --thumb-width 300
  yoyodex parse-caption "Wolf - White Walker - 4/1/25"
`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output")
	root.PersistentFlags().BoolVarP(&opts.json, "json", "j", false, "Output as JSON")

	root.AddCommand(
		newSyncCommand(opts),
		newQueryCommand(opts),
		newCacheCommand(opts),
		newImagesCommand(opts),
		newParseCaptionCommand(opts),
		newVersionCommand(opts, version),
	)
	return root
}

// app loads configuration and opens the application.
func (o *options) app() (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewNop()
	if o.verbose || cfg.App.Debug {
		mode := "development"
		if cfg.App.IsProduction() {
			mode = "production"
		}
		if log, err = logger.New(mode, true); err != nil {
			return nil, err
		}
	}
	return o.open(cfg, log)
}

// withApp opens the application, runs fn and closes it.
func (o *options) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	app, err := o.app()
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(cmd.Context(), app)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCommand(opts *options, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			info := map[string]string{
				"cli":    version,
				"schema": cfg.App.SchemaVersion(),
				"store":  cfg.Cache.Type,
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "yoyodex %s (schema %s, store %s)\n", info["cli"], info["schema"], info["store"])
			return err
		},
	}
}
