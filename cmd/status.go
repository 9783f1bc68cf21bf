package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/schemactl/schemactl/internal/snapshot"
)

var statusCmd = &cobra.Command{
	Use:   "status [workspace]",
	Short: "Show the workspace's latest snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := workspaceArg(args)
		st, err := snapshot.NewStore(root).Latest()
		if err != nil {
			if errors.Is(err, snapshot.ErrNoSnapshot) {
				fmt.Printf("Workspace %s has no snapshot yet; run `schemactl plan`.\n", root)
				return nil
			}
			return fmt.Errorf("loading snapshot: %w", err)
		}

		fmt.Printf("Latest snapshot: version %d (%d tables)\n\n", st.Version, len(st.Tables))

		keys := make([]string, 0, len(st.Tables))
		for k := range st.Tables {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			def := st.Tables[k]
			fmt.Printf("  %-40s %d columns\n", k, len(def.Columns))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
