package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/profile-screener/internal/schema"
)

var detectCmd = &cobra.Command{
	Use:   "detect [source...]",
	Short: "Show the detected field mapping of each source",
	Run: func(_ *cobra.Command, args []string) {
		runDetect(args)
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

type detectionReport struct {
	Source  string         `json:"source"`
	Name    string         `json:"name,omitempty"`
	Mapping schema.Mapping `json:"mapping"`
	Err     string         `json:"error,omitempty"`
}

func runDetect(args []string) {
	d := mustSetup()
	defer d.Close()

	descs, err := selectSources(d, args)
	if err != nil {
		d.log.Fatal("selecting sources", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
	defer cancel()

	reports := make([]detectionReport, 0, len(descs))
	for _, desc := range descs {
		rep := detectionReport{Source: desc.Key(), Name: desc.Name}
		mapping, err := d.engine.DetectSchema(ctx, desc)
		if err != nil {
			rep.Err = err.Error()
		} else {
			rep.Mapping = mapping
		}
		reports = append(reports, rep)
	}

	printJSON(reports)
}
