// Package cmd assembles the homewatch command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/homewatch/homewatch-go/cmd/serve"
	"github.com/homewatch/homewatch-go/internal/buildinfo"
	"github.com/homewatch/homewatch-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "homewatch",
		Short:   "HomeWatch monitoring server",
		Long:    "HomeWatch watches camera frames for people, classifies the danger, and records and broadcasts what it finds.",
		Version: buildinfo.Version,
	}

	setupFlags(rootCmd, settings)

	serveCmd := serve.Command(settings)
	rootCmd.AddCommand(serveCmd)

	// Running without a subcommand starts the server.
	rootCmd.RunE = serveCmd.RunE

	return rootCmd
}

// setupFlags configures global flags shared by all commands.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.WebServer.Port, "port", "p", settings.WebServer.Port, "Port for the HTTP API")
	rootCmd.PersistentFlags().Float64VarP(&settings.Detector.Threshold, "threshold", "t", settings.Detector.Threshold, "Confidence threshold for danger classification")
}
