// Package cmd implements the CLI commands for price-drop-tracker.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "price-drop-tracker",
	Short: "Track product prices on Brazilian storefronts and alert on drops",
	Long:  "A service that periodically scrapes tracked product pages, records price history in PostgreSQL, and sends Telegram alerts when configured price conditions are met.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Optional .env for local runs; config expansion reads the environment.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Root exposes the command tree for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}
