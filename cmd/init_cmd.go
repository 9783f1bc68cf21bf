package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schemactl/schemactl/internal/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init [workspace]",
	Short: "Scaffold a workspace interactively",
	Long: `Walk through prompts and write a starter config document and an
example table document into the workspace directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := workspaceArg(args)
		if err := os.MkdirAll(root, 0o755); err != nil {
			return fmt.Errorf("creating workspace directory: %w", err)
		}

		if existing, _, err := workspace.Crawl(root); err == nil && existing != "" {
			return fmt.Errorf("workspace already has a config document: %s", existing)
		}

		reader := bufio.NewReader(os.Stdin)

		fmt.Println("Schemactl Workspace Setup")
		fmt.Println("=========================")
		fmt.Println()

		dbType := prompt(reader, "Database type (postgres/mysql)", "postgres")
		host := prompt(reader, "Host", "localhost")
		port := prompt(reader, "Port", defaultPort(dbType))
		database := prompt(reader, "Database name", "")
		user := prompt(reader, "Username", "")
		password := prompt(reader, "Password (secret references like ${ENV:DB_PASSWORD} are resolved at connect time)", "${ENV:DB_PASSWORD}")
		schemaName := prompt(reader, "Managed schema", "public")
		fmt.Println()

		configPath := filepath.Join(root, "config.yaml")
		if err := os.WriteFile(configPath, []byte(configDoc(dbType, host, port, user, password, database, schemaName)), 0o644); err != nil {
			return fmt.Errorf("writing config document: %w", err)
		}

		tablePath := filepath.Join(root, "example.yaml")
		if err := os.WriteFile(tablePath, []byte(exampleTableDoc(schemaName)), 0o644); err != nil {
			return fmt.Errorf("writing example table document: %w", err)
		}

		fmt.Printf("Wrote %s and %s\n", configPath, tablePath)
		fmt.Println("Edit the table document, then run `schemactl plan` and `schemactl build`.")
		return nil
	},
}

func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("  %s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

func defaultPort(dbType string) string {
	switch dbType {
	case "mysql":
		return "3306"
	default:
		return "5432"
	}
}

func configDoc(dbType, host, port, user, password, database, schemaName string) string {
	return fmt.Sprintf(`context:
  environment: dev

connection:
  type: %s
  host: %s
  port: %s
  user: %s
  password: "%s"
  database: %s

schemas:
  - name: %s
`, dbType, host, port, user, password, database, schemaName)
}

func exampleTableDoc(schemaName string) string {
	return fmt.Sprintf(`name: example
description: Starter table; replace with your own definition.
schema: %s
columns:
  - name: id
    type: integer
    primary_key: true
    auto_increment: true
  - name: name
    type: string
    length: 100
    nullable: false
`, schemaName)
}
