package main

import (
	"context"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List every discovered record source",
	Run: func(_ *cobra.Command, _ []string) {
		runSources()
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources() {
	d := mustSetup()
	defer d.Close()

	printJSON(d.discoverer.Discover(context.Background()))
}
