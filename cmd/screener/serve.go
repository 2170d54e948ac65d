package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/profile-screener/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the screening API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() {
	d := mustSetup()
	defer d.Close()

	srv := web.NewServer(d.cfg, d.engine, d.discoverer, d.extractor, d.log)
	if err := srv.Start(); err != nil {
		d.log.Fatal("server failed", zap.Error(err))
	}
}
