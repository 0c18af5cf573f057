package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"g2-yoyodex/internal/bootstrap"
	"g2-yoyodex/internal/model"
	"g2-yoyodex/internal/query"
	"g2-yoyodex/internal/service"
)

type queryFlags struct {
	search, model, colorway, itemType string
	view, sort                        string
	asc, desc                         bool
	page, pageSize                    int
	offline                           bool
}

func newQueryCommand(opts *options) *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search, filter and sort the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.asc && f.desc {
				return fmt.Errorf("--asc and --desc are mutually exclusive")
			}
			p := query.Params{
				Search: f.search,
				Facets: map[query.Facet]string{
					query.FacetModel:    f.model,
					query.FacetColorway: f.colorway,
					query.FacetType:     f.itemType,
				},
				View:     f.view,
				Sort:     f.sort,
				Page:     f.page,
				PageSize: f.pageSize,
			}
			if f.asc || f.desc {
				d := f.desc
				p.Descending = &d
			}

			return opts.withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				st, err := query.FromParams(p, app.Config.Catalog.DefaultPageSize)
				if err != nil {
					return err
				}
				if err := load(ctx, app, f.offline); err != nil {
					return err
				}

				res, err := app.Catalog.RunQuery(ctx, st)
				if err != nil {
					return err
				}
				if opts.json {
					return writeJSON(cmd.OutOrStdout(), res)
				}

				out := cmd.OutOrStdout()
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "IDENTITY\tMODEL\tCOLORWAY\tRELEASED")
				for _, it := range res.Items {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Identity, it.Model, it.Colorway, service.FormatRelease(it.ReleaseDate))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "\npage %d of %d, %d matching\n", res.Page, res.Pages, res.Total)
				return err
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.search, "search", "q", "", "Free text search")
	fl.StringVar(&f.model, "model", "", "Only this model")
	fl.StringVar(&f.colorway, "colorway", "", "Only this colorway")
	fl.StringVar(&f.itemType, "type", "", "Only this type")
	fl.StringVar(&f.view, "view", "", "wishlist or owned")
	fl.StringVar(&f.sort, "sort", "", "date or model")
	fl.BoolVar(&f.asc, "asc", false, "Ascending order")
	fl.BoolVar(&f.desc, "desc", false, "Descending order")
	fl.IntVar(&f.page, "page", 1, "Page number")
	fl.IntVar(&f.pageSize, "page-size", 0, "Items per page (default from CATALOG_PAGE_SIZE)")
	fl.BoolVar(&f.offline, "offline", false, "Use only the local cache")
	return cmd
}

// load fills the catalog: from the cache alone when offline, otherwise
// through a full refresh that serves the cache first.
func load(ctx context.Context, app *bootstrap.App, offline bool) error {
	if !offline {
		app.Engine.Refresh(ctx)
		if app.Engine.LoadFailed() {
			return fmt.Errorf("catalog could not be loaded and no cached copy exists")
		}
		return nil
	}

	entry, ok := app.Datasets.Get(ctx, model.ResourceItems)
	if !ok {
		return fmt.Errorf("no cached items; run 'yoyodex sync' first")
	}
	app.Catalog.OnData(model.ResourceItems, entry.Data)
	if specs, ok := app.Datasets.Get(ctx, model.ResourceSpecs); ok {
		app.Catalog.OnData(model.ResourceSpecs, specs.Data)
	}
	return nil
}
