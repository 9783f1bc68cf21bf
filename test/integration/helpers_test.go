//go:build integration

package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/schemactl/schemactl/internal/workspace"
)

func pgConnection(t *testing.T) *workspace.Connection {
	t.Helper()
	return &workspace.Connection{
		Type:     "postgres",
		Host:     envOrDefault("SCHEMACTL_TEST_PG_HOST", "localhost"),
		Port:     pgPort(t),
		Database: envOrDefault("SCHEMACTL_TEST_PG_DATABASE", "schemactl_test"),
		User:     envOrDefault("SCHEMACTL_TEST_PG_USER", "postgres"),
		Password: envOrDefault("SCHEMACTL_TEST_PG_PASSWORD", "postgres"),
	}
}

func pgPort(t *testing.T) int {
	t.Helper()
	p := envOrDefault("SCHEMACTL_TEST_PG_PORT", "25432")
	var port int
	fmt.Sscanf(p, "%d", &port)
	return port
}

func skipIfNoPostgres(t *testing.T) {
	t.Helper()
	if os.Getenv("SCHEMACTL_TEST_PG_HOST") == "" && os.Getenv("SCHEMACTL_TEST_PG_PORT") == "" {
		t.Skip("skipping: SCHEMACTL_TEST_PG_HOST/PORT not set")
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// writeWorkspace lays out a throwaway workspace directory from a map of
// relative path to document content.
func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func writeFile(dir, name, content string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
}
