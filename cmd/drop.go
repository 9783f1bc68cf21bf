package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schemactl/schemactl/internal/introspect"
	"github.com/schemactl/schemactl/internal/logging"
	"github.com/schemactl/schemactl/internal/reconcile"
	"github.com/schemactl/schemactl/internal/snapshot"
	"github.com/schemactl/schemactl/internal/typemap"
	"github.com/schemactl/schemactl/internal/workspace"
)

var dropForce bool

var dropCmd = &cobra.Command{
	Use:   "drop [workspace]",
	Short: "Tear down every table in the managed schemas",
	Long: `Drop all tables found in the workspace's managed schemas, including
tables the workspace never declared. Each drop must be confirmed by typing
the qualified table name, or authorized wholesale with --force.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logging.Setup(logLevel, "")
		if err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		root := workspaceArg(args)
		cfg, err := workspace.LoadConfig(root)
		if err != nil {
			return fmt.Errorf("loading workspace config: %w", err)
		}

		st, err := snapshot.NewStore(root).Latest()
		if err != nil {
			if errors.Is(err, snapshot.ErrNoSnapshot) {
				// No snapshot means no table documents were ever planned;
				// managed schemas from the config are still swept.
				st = &snapshot.State{}
			} else {
				return fmt.Errorf("loading snapshot: %w", err)
			}
		}

		mapper, err := typemap.ForConnection(cfg.Connection.Type, true)
		if err != nil {
			return err
		}

		conn, err := introspect.New(&cfg.Connection)
		if err != nil {
			return err
		}
		if err := conn.Connect(ctx); err != nil {
			return fmt.Errorf("connecting to %s: %w", cfg.Connection.Type, err)
		}
		defer conn.Close()

		eng := &reconcile.Engine{
			Conn:    conn,
			Mapper:  mapper,
			Logger:  logger,
			Force:   dropForce,
			Confirm: confirmFromStdin,
		}

		res, err := eng.Drop(ctx, st, cfg.SchemaNames())
		if err != nil {
			return fmt.Errorf("dropping: %w", err)
		}

		fmt.Println(res.Summary())
		return nil
	},
}

func init() {
	dropCmd.Flags().BoolVar(&dropForce, "force", false, "drop every table without per-table confirmation")
	rootCmd.AddCommand(dropCmd)
}
