package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Extract a subject profile from free-form text",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		runExtract(strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(text string) {
	d := mustSetup()
	defer d.Close()

	if d.extractor == nil {
		d.log.Fatal("extraction requires ai.enabled in the config",
			zap.String("hint", "set GEMINI_API_KEY and enable the ai section"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
	defer cancel()

	ex, err := d.extractor.Extract(ctx, text)
	if err != nil {
		d.log.Fatal("extraction failed", zap.Error(err))
	}

	printJSON(ex.Profile)
}
