package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "roomchat",
	Short: "Realtime room chat server",
	Long: `roomchat serves websocket chat rooms with presence, typing indicators,
read receipts and reactions, plus a small read-only REST API.

Running roomchat without a subcommand is the same as "roomchat serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serveOpts.port, "port", "", "listen address, overrides SERVER_PORT (e.g. :8080)")
	rootCmd.PersistentFlags().StringVar(&serveOpts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
}
