package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shaibs3/uniload/internal/app"
	"github.com/shaibs3/uniload/internal/db"
	"github.com/shaibs3/uniload/internal/storage"
	"github.com/spf13/cobra"
)

type reportOptions struct {
	country string
	search  string
	limit   int
}

func newReportCommand(c *cli) *cobra.Command {
	var opts reportOptions
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print what is stored: totals per country, one country's universities or a name search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.openApp(cmd.Context(), func(a *app.App) error {
				return runReport(cmd.Context(), cmd.OutOrStdout(), a.Reports(), opts)
			})
		},
	}
	cmd.Flags().StringVar(&opts.country, "country", "", "list the universities of this country")
	cmd.Flags().StringVar(&opts.search, "search", "", "search universities whose name contains this text")
	cmd.Flags().IntVar(&opts.limit, "limit", db.DefaultReportLimit, "maximum rows for --country and --search")
	cmd.MarkFlagsMutuallyExclusive("country", "search")
	return cmd
}

func runReport(ctx context.Context, out io.Writer, reports storage.Reporter, opts reportOptions) error {
	counts, err := reports.Counts(ctx)
	if err != nil {
		return fmt.Errorf("count rows: %w", err)
	}

	switch {
	case opts.country != "":
		matches, err := reports.UniversitiesByCountry(ctx, opts.country, opts.limit)
		if err != nil {
			return fmt.Errorf("list universities of %q: %w", opts.country, err)
		}
		renderMatches(out, "Universities in "+opts.country, matches)
	case opts.search != "":
		matches, err := reports.SearchUniversities(ctx, opts.search, opts.limit)
		if err != nil {
			return fmt.Errorf("search %q: %w", opts.search, err)
		}
		renderMatches(out, fmt.Sprintf("Universities matching %q", opts.search), matches)
	default:
		totals, err := reports.CountryTotals(ctx)
		if err != nil {
			return fmt.Errorf("country totals: %w", err)
		}
		renderTotals(out, totals)
	}

	_, err = fmt.Fprintf(out, "%d countries, %d universities stored\n", counts.Countries, counts.Universities)
	return err
}

func renderTotals(out io.Writer, totals []db.CountryTotal) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Universities per country")
	t.AppendHeader(table.Row{"Country", "Universities"})
	for _, ct := range totals {
		t.AppendRow(table.Row{ct.Country, ct.Total})
	}
	t.Render()
}

func renderMatches(out io.Writer, title string, matches []db.UniversityMatch) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"#", "University", "Country", "State/Province"})
	for i, m := range matches {
		state := ""
		if m.StateProvince != nil {
			state = *m.StateProvince
		}
		t.AppendRow(table.Row{i + 1, m.Name, m.Country, state})
	}
	t.Render()
}
