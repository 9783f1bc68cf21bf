package introspect

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/schemactl/schemactl/internal/typemap"
)

// Mock is a test double for Conn backed by in-memory maps. Executed
// statements are recorded; ExecErrs injects failures for statements
// containing a given substring.
type Mock struct {
	DialectValue typemap.Dialect
	Schemas      map[string]bool
	Tables       map[string][]LiveColumn // key "schema.table"
	Data         map[string]bool         // key "schema.table.column", true when the column holds non-null data
	ConnectErr   error
	ExecErrs     map[string]error

	Executed []string
	Closed   bool
}

// NewMock returns an empty postgres-dialect Mock.
func NewMock() *Mock {
	return &Mock{
		DialectValue: typemap.DialectPostgres,
		Schemas:      make(map[string]bool),
		Tables:       make(map[string][]LiveColumn),
		Data:         make(map[string]bool),
	}
}

func (m *Mock) Connect(_ context.Context) error {
	return m.ConnectErr
}

func (m *Mock) Dialect() typemap.Dialect {
	return m.DialectValue
}

func (m *Mock) SchemaExists(_ context.Context, schemaName string) (bool, error) {
	return m.Schemas[schemaName], nil
}

func (m *Mock) TableExists(_ context.Context, schemaName, table string) (bool, error) {
	_, ok := m.Tables[schemaName+"."+table]
	return ok, nil
}

func (m *Mock) ListTables(_ context.Context, schemaName string) ([]string, error) {
	var tables []string
	prefix := schemaName + "."
	for key := range m.Tables {
		if strings.HasPrefix(key, prefix) {
			tables = append(tables, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(tables)
	return tables, nil
}

func (m *Mock) Columns(_ context.Context, schemaName, table string) ([]LiveColumn, error) {
	cols, ok := m.Tables[schemaName+"."+table]
	if !ok {
		return nil, fmt.Errorf("table %s.%s does not exist", schemaName, table)
	}
	return cols, nil
}

func (m *Mock) ColumnHasData(_ context.Context, schemaName, table, column string) (bool, error) {
	return m.Data[schemaName+"."+table+"."+column], nil
}

func (m *Mock) Exec(_ context.Context, ddl string) error {
	m.Executed = append(m.Executed, ddl)
	for sub, err := range m.ExecErrs {
		if strings.Contains(ddl, sub) {
			return err
		}
	}
	return nil
}

func (m *Mock) Close() error {
	m.Closed = true
	return nil
}

// ExecutedMatching returns recorded statements containing the substring.
func (m *Mock) ExecutedMatching(sub string) []string {
	var out []string
	for _, stmt := range m.Executed {
		if strings.Contains(stmt, sub) {
			out = append(out, stmt)
		}
	}
	return out
}
