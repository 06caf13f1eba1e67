package main

import (
	"github.com/shaibs3/uniload/internal/app"
	"github.com/spf13/cobra"
)

func newServeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the report and load HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.openApp(cmd.Context(), func(a *app.App) error {
				return a.Run()
			})
		},
	}
}
