package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the vector index once and exit",
	Long: `Loads the knowledge base, embeds every entry and builds the index.
With the sqlite backend the result is persisted so the next serve start
skips re-embedding an unchanged knowledge base.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildStack()
		if err != nil {
			return err
		}
		defer app.close()

		snap, err := app.rebuild.Rebuild(cmd.Context())
		if err != nil {
			return err
		}

		color.Green("Indexed %d entries (%s backend)", snap.Store.Count(), cfg.Index.Backend)
		return nil
	},
}
