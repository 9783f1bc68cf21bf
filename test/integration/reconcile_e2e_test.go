//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/schemactl/schemactl/internal/introspect"
	"github.com/schemactl/schemactl/internal/reconcile"
	"github.com/schemactl/schemactl/internal/snapshot"
	"github.com/schemactl/schemactl/internal/typemap"
	"github.com/schemactl/schemactl/internal/workspace"
)

const e2eSchema = "schemactl_e2e"

func e2eConfigDoc(t *testing.T) string {
	c := pgConnection(t)
	return fmt.Sprintf(`
context:
  environment: test
connection:
  type: postgres
  host: %s
  port: %d
  user: %s
  password: %s
  database: %s
schemas:
  - name: %s
`, c.Host, c.Port, c.User, c.Password, c.Database, e2eSchema)
}

const customerDocV1 = `
name: customer
description: Customer table
schema: schemactl_e2e
columns:
  - name: id
    type: integer
    primary_key: true
  - name: name
    type: string
    length: 50
`

const customerDocV2 = `
name: customer
description: Customer table
schema: schemactl_e2e
columns:
  - name: id
    type: integer
    primary_key: true
  - name: name
    type: string
    length: 100
  - name: email
    type: string
    length: 255
`

func connect(t *testing.T, ctx context.Context) introspect.Conn {
	t.Helper()
	conn, err := introspect.New(pgConnection(t))
	if err != nil {
		t.Fatalf("creating connection: %v", err)
	}
	if err := conn.Connect(ctx); err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func planAndBuild(t *testing.T, ctx context.Context, dir string, conn introspect.Conn) *reconcile.Result {
	t.Helper()
	desired, cfg, err := workspace.BuildDesiredState(dir)
	if err != nil {
		t.Fatalf("building desired state: %v", err)
	}
	if _, _, err := snapshot.NewStore(dir).PersistIfChanged(desired); err != nil {
		t.Fatalf("persisting snapshot: %v", err)
	}
	st, err := snapshot.NewStore(dir).Latest()
	if err != nil {
		t.Fatalf("loading snapshot: %v", err)
	}

	eng := &reconcile.Engine{
		Conn:   conn,
		Mapper: typemap.New(conn.Dialect(), false),
		Force:  true,
	}
	res, err := eng.Build(ctx, st, cfg.SchemaNames())
	if err != nil {
		t.Fatalf("building: %v", err)
	}
	if !res.Clean() {
		t.Fatalf("build not clean: %s", res.Summary())
	}
	return res
}

// TestFixtureDocumentsAssemble needs no database: it catches fixture
// documents that the workspace loader would reject before any DDL runs.
func TestFixtureDocumentsAssemble(t *testing.T) {
	for name, doc := range map[string]string{"v1": customerDocV1, "v2": customerDocV2} {
		t.Run(name, func(t *testing.T) {
			dir := writeWorkspace(t, map[string]string{
				"config.yaml":   e2eConfigDoc(t),
				"customer.yaml": doc,
			})
			desired, _, err := workspace.BuildDesiredState(dir)
			if err != nil {
				t.Fatalf("building desired state: %v", err)
			}
			if len(desired) != 1 {
				t.Errorf("desired tables = %d, want 1", len(desired))
			}
		})
	}
}

func TestReconcileLifecycle(t *testing.T) {
	skipIfNoPostgres(t)
	ctx := context.Background()

	conn := connect(t, ctx)
	defer conn.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %q CASCADE", e2eSchema))

	dir := writeWorkspace(t, map[string]string{
		"config.yaml":   e2eConfigDoc(t),
		"customer.yaml": customerDocV1,
	})

	// First build creates schema and table.
	planAndBuild(t, ctx, dir, conn)

	exists, err := conn.TableExists(ctx, e2eSchema, "customer")
	if err != nil {
		t.Fatalf("checking table: %v", err)
	}
	if !exists {
		t.Fatal("customer table was not created")
	}

	// A second build of the same snapshot must be a no-op.
	res := planAndBuild(t, ctx, dir, conn)
	if len(res.Applied) != 0 {
		t.Errorf("rebuild applied %d actions, want 0: %s", len(res.Applied), res.Summary())
	}

	// Widening a column and adding one yields exactly two actions.
	if err := writeFile(dir, "customer.yaml", customerDocV2); err != nil {
		t.Fatal(err)
	}
	res = planAndBuild(t, ctx, dir, conn)
	if len(res.Applied) != 2 {
		t.Errorf("drift build applied %d actions, want 2: %s", len(res.Applied), res.Summary())
	}

	cols, err := conn.Columns(ctx, e2eSchema, "customer")
	if err != nil {
		t.Fatalf("introspecting: %v", err)
	}
	byName := map[string]introspect.LiveColumn{}
	for _, c := range cols {
		byName[c.Name] = c
	}
	if c, ok := byName["name"]; !ok || c.DataType != "character varying(100)" {
		t.Errorf("name column = %+v, want character varying(100)", c)
	}
	if _, ok := byName["email"]; !ok {
		t.Error("email column was not added")
	}

	// Drop tears the managed schema's tables down.
	st, err := snapshot.NewStore(dir).Latest()
	if err != nil {
		t.Fatal(err)
	}
	eng := &reconcile.Engine{
		Conn:   conn,
		Mapper: typemap.New(conn.Dialect(), false),
		Force:  true,
	}
	if _, err := eng.Drop(ctx, st, []string{e2eSchema}); err != nil {
		t.Fatalf("dropping: %v", err)
	}
	exists, err = conn.TableExists(ctx, e2eSchema, "customer")
	if err != nil {
		t.Fatalf("checking table: %v", err)
	}
	if exists {
		t.Error("customer table survived drop")
	}
}
