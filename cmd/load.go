package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shaibs3/uniload/internal/app"
	"github.com/shaibs3/uniload/internal/etl"
	"github.com/spf13/cobra"
)

func newLoadCommand(c *cli) *cobra.Command {
	var countries []string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Fetch and load universities for the given countries (default list when none)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.openApp(cmd.Context(), func(a *app.App) error {
				summary, err := a.Load(cmd.Context(), countries)
				// a partial summary is still worth printing
				renderSummary(cmd.OutOrStdout(), summary)
				return err
			})
		},
	}
	cmd.Flags().StringArrayVarP(&countries, "country", "c", nil, "country to load (repeatable)")
	return cmd
}

func renderSummary(out io.Writer, s etl.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Run " + s.RunID)
	t.AppendHeader(table.Row{"Country", "Fetched", "Inserted", "Duplicates", "Malformed", "Storage errors", "Error"})
	for _, r := range s.Countries {
		t.AppendRow(table.Row{r.Country, r.Fetched, r.Inserted, r.Duplicates, r.Malformed, r.StorageErrors, r.Error})
	}
	failed := ""
	if s.FailedCountries > 0 {
		failed = fmt.Sprintf("%d failed", s.FailedCountries)
	}
	t.AppendFooter(table.Row{"Total", s.Fetched, s.Inserted, s.Duplicates, s.Malformed, s.StorageErrors, failed})
	t.SetCaption("elapsed %s", s.Duration().Round(time.Millisecond))
	t.Render()
}
