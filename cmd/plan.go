package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schemactl/schemactl/internal/logging"
	"github.com/schemactl/schemactl/internal/snapshot"
	"github.com/schemactl/schemactl/internal/workspace"
)

var planCmd = &cobra.Command{
	Use:   "plan [workspace]",
	Short: "Snapshot the workspace's desired state",
	Long: `Crawl the workspace, render and validate every table document, and
persist the assembled desired state as a versioned snapshot. A new version
is written only when the desired state differs from the latest snapshot.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logging.Setup(logLevel, "")
		if err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}

		root := workspaceArg(args)
		desired, _, err := workspace.BuildDesiredState(root)
		if err != nil {
			return fmt.Errorf("building desired state: %w", err)
		}
		logger.Info("desired state assembled", "workspace", root, "tables", len(desired))

		store := snapshot.NewStore(root)
		path, wrote, err := store.PersistIfChanged(desired)
		if err != nil {
			return fmt.Errorf("persisting snapshot: %w", err)
		}

		if wrote {
			fmt.Printf("Wrote snapshot %s (%d tables)\n", path, len(desired))
		} else {
			fmt.Printf("Desired state unchanged; latest snapshot is %s\n", path)
		}
		return nil
	},
}

func workspaceArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func init() {
	rootCmd.AddCommand(planCmd)
}
