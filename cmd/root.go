package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel string
	version  = "dev"
	commit   = "none"
	date     = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "schemactl",
	Short: "Schemactl — declarative database table management",
	Long: `Schemactl reconciles a live database's schema against tables declared
in a workspace of YAML documents.

A workspace holds one config document (connection, managed schemas, template
context) and any number of table documents. "plan" snapshots the desired
state with version history; "build" applies the latest snapshot to the live
database, guarded against accidental data loss.`,
}

func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}
