package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/schemactl/schemactl/internal/schema"
)

const configDoc = `
context:
  environment: dev
connection:
  type: postgres
  host: localhost
  port: 5432
  user: postgres
  password: postgres
  database: appdb
schemas:
  - name: public
    description: Default schema
  - name: customer
    description: Customer schema
`

const customerDoc = `
name: customer
description: Customer table
schema: '{{ if eq .environment "dev" }}dev_{{ end }}customer'
columns:
  - name: id
    type: int
    primary_key: true
  - name: name
    type: string
    length: 50
  - name: dob
    type: date
`

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

func TestCrawl(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"config.yml":           configDoc,
		"tables/customer.yaml": customerDoc,
		"README.md":            "not a document",
	})

	configPath, tables, err := Crawl(dir)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if filepath.Base(configPath) != "config.yml" {
		t.Errorf("config path = %q", configPath)
	}
	if len(tables) != 1 || filepath.Base(tables[0]) != "customer.yaml" {
		t.Errorf("table paths = %v", tables)
	}
}

func TestCrawl_ConfigCount(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		dir := writeWorkspace(t, map[string]string{"customer.yaml": customerDoc})
		_, _, err := Crawl(dir)
		var cce *ConfigCountError
		if !errors.As(err, &cce) {
			t.Fatalf("expected ConfigCountError, got %v", err)
		}
		if cce.Found != 0 {
			t.Errorf("Found = %d, want 0", cce.Found)
		}
	})

	t.Run("multiple", func(t *testing.T) {
		dir := writeWorkspace(t, map[string]string{
			"config.yml":      configDoc,
			"sub/config.yaml": configDoc,
		})
		_, _, err := Crawl(dir)
		var cce *ConfigCountError
		if !errors.As(err, &cce) {
			t.Fatalf("expected ConfigCountError, got %v", err)
		}
		if cce.Found != 2 {
			t.Errorf("Found = %d, want 2", cce.Found)
		}
	})
}

func TestCrawl_SkipsSnapshotDir(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"config.yml":               configDoc,
		".schemactl/state_v1.yaml": "{}",
		"tables/customer.yaml":     customerDoc,
	})

	_, tables, err := Crawl(dir)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(tables) != 1 {
		t.Errorf("expected snapshot files to be skipped, got %v", tables)
	}
}

func TestBuildDesiredState(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"config.yml":           configDoc,
		"tables/customer.yaml": customerDoc,
	})

	tables, cfg, err := BuildDesiredState(dir)
	if err != nil {
		t.Fatalf("BuildDesiredState: %v", err)
	}
	if cfg.Connection.Database != "appdb" {
		t.Errorf("database = %q", cfg.Connection.Database)
	}

	def, ok := tables["appdb.dev_customer.customer"]
	if !ok {
		t.Fatalf("expected key appdb.dev_customer.customer, got %v", keys(tables))
	}
	if def.Schema != "dev_customer" {
		t.Errorf("schema = %q, want rendered dev_customer", def.Schema)
	}
	if def.Database != "appdb" {
		t.Errorf("database = %q, want injected appdb", def.Database)
	}
	if len(def.Columns) != 3 {
		t.Fatalf("columns = %d, want 3", len(def.Columns))
	}
	if !def.Columns[0].PrimaryKey {
		t.Error("id should be primary key")
	}
	if def.Columns[1].Length != 50 {
		t.Errorf("name length = %d, want 50", def.Columns[1].Length)
	}
}

func TestBuildDesiredState_UnresolvedVariable(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"config.yml": configDoc,
		"orders.yaml": `
name: orders
description: Orders
schema: "{{ .region }}_orders"
columns:
  - name: id
    type: int
`,
	})

	_, _, err := BuildDesiredState(dir)
	var te *TemplateError
	if !errors.As(err, &te) {
		t.Fatalf("expected TemplateError for unresolved variable, got %v", err)
	}
}

func TestBuildDesiredState_InvalidTable(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"config.yml": configDoc,
		"bad.yaml": `
name: bad
schema: public
columns:
  - name: id
    type: int
`,
	})

	_, _, err := BuildDesiredState(dir)
	if err == nil {
		t.Fatal("expected validation error for table without description")
	}
}

func TestBuildDesiredState_InvalidConfig(t *testing.T) {
	dir := writeWorkspace(t, map[string]string{
		"config.yml": `
connection:
  type: postgres
  host: localhost
  database: appdb
schemas:
  - name: public
`,
	})

	_, _, err := BuildDesiredState(dir)
	if err == nil {
		t.Fatal("expected validation error for config without context")
	}
}

func keys(m map[string]schema.TableDefinition) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
