// Package cmd holds the catalog command line: the HTTP server and admin tooling.
package cmd

import (
	"os"

	"catalog/config"
	"catalog/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewRootCommand returns the catalog command. Running it without a subcommand
// starts the server.
func NewRootCommand() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Catalog backend with image uploads",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Read(envFile)
			logging.Setup(cfg.LogLevel, cfg.LogFormat)
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored when missing)")

	serveCmd := newServeCommand(&envFile)
	rootCmd.RunE = serveCmd.RunE
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newCreateAdminCommand(&envFile))
	return rootCmd
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
