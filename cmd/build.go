package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schemactl/schemactl/internal/introspect"
	"github.com/schemactl/schemactl/internal/logging"
	"github.com/schemactl/schemactl/internal/reconcile"
	"github.com/schemactl/schemactl/internal/snapshot"
	"github.com/schemactl/schemactl/internal/typemap"
	"github.com/schemactl/schemactl/internal/workspace"
)

var (
	buildForce        bool
	buildLenientTypes bool
	buildSkipVerify   bool
)

var buildCmd = &cobra.Command{
	Use:   "build [workspace]",
	Short: "Reconcile the live database to the latest snapshot",
	Long: `Connect to the workspace's database and issue the DDL needed to make
its schema match the latest snapshot: missing schemas and tables are created,
declared columns are added, drifted column types are altered, and stale
columns and tables are dropped subject to the data-loss guard.

Drops of columns holding data, and drops of whole tables, are held back
unless --force is given or the table drop is confirmed interactively.`,
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

		mapper, err := typemap.ForConnection(cfg.Connection.Type, buildLenientTypes)
		if err != nil {
			return err
		}

		st, err := snapshot.NewStore(root).Latest()
		if err != nil {
			if errors.Is(err, snapshot.ErrNoSnapshot) {
				return fmt.Errorf("workspace %s has no snapshot; run `schemactl plan %s` first", root, root)
			}
			return fmt.Errorf("loading snapshot: %w", err)
		}
		logger.Info("applying snapshot", "version", st.Version, "tables", len(st.Tables))

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
			Force:   buildForce,
			Confirm: confirmFromStdin,
		}

		res, err := eng.Build(ctx, st, cfg.SchemaNames())
		if err != nil {
			return fmt.Errorf("building: %w", err)
		}

		fmt.Println(res.Summary())

		if !buildSkipVerify {
			// Verification runs over a fresh connection so it sees only
			// committed state.
			vconn, err := introspect.New(&cfg.Connection)
			if err != nil {
				return err
			}
			if err := vconn.Connect(ctx); err != nil {
				return fmt.Errorf("connecting for verification: %w", err)
			}
			defer vconn.Close()
			for _, mismatch := range reconcile.VerifyShape(ctx, vconn, st, mapper) {
				logger.Warn("post-build verification mismatch", "detail", mismatch)
			}
		}

		// Partial failures are reported above but do not fail the run;
		// re-running build retries only what is still out of shape.
		return nil
	},
}

func confirmFromStdin(prompt string) string {
	fmt.Print(prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line)
}

func init() {
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "authorize destructive drops without confirmation")
	buildCmd.Flags().BoolVar(&buildLenientTypes, "lenient-types", false, "map unknown declared types to VARCHAR(255) instead of failing")
	buildCmd.Flags().BoolVar(&buildSkipVerify, "skip-verify", false, "skip post-build shape verification")
	rootCmd.AddCommand(buildCmd)
}
