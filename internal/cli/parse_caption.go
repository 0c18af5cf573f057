package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"g2-yoyodex/internal/caption"
)

func newParseCaptionCommand(opts *options) *cobra.Command {
	var (
		models    []string
		colorways []string
		sheet     bool
	)

	cmd := &cobra.Command{
		Use:   "parse-caption [caption...]",
		Short: "Extract model, colorway, quantity and date from release captions",
		Long: `
Reads release announcement captions and prints the catalog fields found in
them. Captions are taken from the arguments, or from stdin separated by blank
lines when no arguments are given.

EXAMPLES:
  yoyodex parse-caption "Wolf - White Walker - 4/1/25, only 30 available"
  yoyodex parse-caption --sheet < captions.txt
  yoyodex parse-caption --model shutter --colorway cove "Shutter - Cove"
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			captions := args
			if len(captions) == 0 {
				var err error
				if captions, err = readCaptions(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			p := caption.DefaultParser()
			p.Learn(models, colorways)
			results := p.ParseAll(captions)
			if len(results) == 0 {
				return fmt.Errorf("no captions given")
			}

			if sheet {
				rows := make([]any, len(results))
				for i, r := range results {
					rows[i] = r.Record()
				}
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), results)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODEL\tCOLORWAY\tQTY\tRELEASED\tGLITCH\tPROTO")
			for _, r := range results {
				qty := "-"
				if r.Quantity != nil {
					qty = fmt.Sprint(*r.Quantity)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\n",
					orDash(caption.TitleCase(r.Model)), orDash(caption.TitleCase(r.Colorway)),
					qty, orDash(r.ReleaseDate), r.Glitch, r.Prototype)
			}
			return tw.Flush()
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVar(&models, "model", nil, "Extra model names to recognise")
	fl.StringSliceVar(&colorways, "colorway", nil, "Extra colorway names to recognise")
	fl.BoolVar(&sheet, "sheet", false, "Print items sheet rows as JSON")
	return cmd
}

// readCaptions splits r into captions at blank lines.
func readCaptions(r io.Reader) ([]string, error) {
	var (
		out []string
		cur []string
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, "\n"))
			cur = nil
		}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}
	flush()
	return out, nil
}
