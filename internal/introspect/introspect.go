package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/schemactl/schemactl/internal/typemap"
	"github.com/schemactl/schemactl/internal/workspace"
)

// LiveColumn is one column as reported by the live database. It is
// ephemeral: obtained by introspection, never persisted.
type LiveColumn struct {
	Name     string
	DataType string
	Nullable bool
}

// Conn provides schema introspection and DDL execution against a live
// database. Implementations hold a single connection and are used
// sequentially; every DDL statement commits on its own.
type Conn interface {
	Connect(ctx context.Context) error
	Dialect() typemap.Dialect
	SchemaExists(ctx context.Context, schemaName string) (bool, error)
	TableExists(ctx context.Context, schemaName, table string) (bool, error)
	ListTables(ctx context.Context, schemaName string) ([]string, error)
	Columns(ctx context.Context, schemaName, table string) ([]LiveColumn, error)
	ColumnHasData(ctx context.Context, schemaName, table, column string) (bool, error)
	Exec(ctx context.Context, ddl string) error
	Close() error
}

// New returns an unconnected Conn for the given workspace connection.
func New(conn *workspace.Connection) (Conn, error) {
	switch strings.ToLower(conn.Type) {
	case "postgres", "postgresql":
		return NewPostgres(conn), nil
	case "mysql":
		return NewMySQL(conn), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", conn.Type)
	}
}
