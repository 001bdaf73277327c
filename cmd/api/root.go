package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "EC back-office API",
	Long: `EC back-office API server.

Commands:
  serve    start the HTTP API (optionally with the queue worker)
  worker   consume the notification queue
  migrate  create or update the database schema
  seed     insert demo data`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(serveCmd, workerCmd, migrateCmd, seedCmd)
}
