package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/schemactl/schemactl/internal/typemap"
	"github.com/schemactl/schemactl/internal/workspace"
)

// MySQL implements Conn for MySQL using sqlx over the go-sql-driver, capped
// at one open connection. MySQL treats schemas as databases, so schema
// operations address sibling databases on the same server.
type MySQL struct {
	dsn string
	db  *sqlx.DB
}

// NewMySQL creates an unconnected MySQL Conn.
func NewMySQL(conn *workspace.Connection) *MySQL {
	dsn := conn.DSN
	if dsn == "" {
		port := conn.Port
		if port == 0 {
			port = 3306
		}
		cfg := mysql.NewConfig()
		cfg.User = conn.User
		cfg.Passwd = conn.Password
		cfg.Net = "tcp"
		cfg.Addr = fmt.Sprintf("%s:%d", conn.Host, port)
		cfg.DBName = conn.Database
		dsn = cfg.FormatDSN()
	}
	return &MySQL{dsn: dsn}
}

func (m *MySQL) Connect(ctx context.Context) error {
	if _, err := mysql.ParseDSN(m.dsn); err != nil {
		return fmt.Errorf("parsing connection string: %w", err)
	}

	db, err := sqlx.Open("mysql", m.dsn)
	if err != nil {
		return fmt.Errorf("opening MySQL connection: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging MySQL: %w", err)
	}

	m.db = db
	return nil
}

func (m *MySQL) Dialect() typemap.Dialect {
	return typemap.DialectMySQL
}

func (m *MySQL) SchemaExists(ctx context.Context, schemaName string) (bool, error) {
	var count int
	err := m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = ?`,
		schemaName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking schema %s: %w", schemaName, err)
	}
	return count > 0, nil
}

func (m *MySQL) TableExists(ctx context.Context, schemaName, table string) (bool, error) {
	var count int
	err := m.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM information_schema.tables
		 WHERE table_schema = ? AND table_name = ? AND table_type = 'BASE TABLE'`,
		schemaName, table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking table %s.%s: %w", schemaName, table, err)
	}
	return count > 0, nil
}

func (m *MySQL) ListTables(ctx context.Context, schemaName string) ([]string, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = ? AND table_type = 'BASE TABLE'
		 ORDER BY table_name`,
		schemaName)
	if err != nil {
		return nil, fmt.Errorf("listing tables in %s: %w", schemaName, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}
	return tables, nil
}

func (m *MySQL) Columns(ctx context.Context, schemaName, table string) ([]LiveColumn, error) {
	// column_type includes length qualifiers (varchar(100), tinyint(1))
	rows, err := m.db.QueryContext(ctx,
		`SELECT column_name, column_type, is_nullable
		 FROM information_schema.columns
		 WHERE table_schema = ? AND table_name = ?
		 ORDER BY ordinal_position`,
		schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s.%s: %w", schemaName, table, err)
	}
	defer rows.Close()

	var cols []LiveColumn
	for rows.Next() {
		var name, colType, nullable string
		if err := rows.Scan(&name, &colType, &nullable); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		cols = append(cols, LiveColumn{
			Name:     name,
			DataType: colType,
			Nullable: strings.EqualFold(nullable, "YES"),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns: %w", err)
	}
	return cols, nil
}

func (m *MySQL) ColumnHasData(ctx context.Context, schemaName, table, column string) (bool, error) {
	sql := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s.%s WHERE %s IS NOT NULL)`,
		quoteIdentMySQL(schemaName), quoteIdentMySQL(table), quoteIdentMySQL(column))

	var hasData bool
	if err := m.db.QueryRowContext(ctx, sql).Scan(&hasData); err != nil {
		return false, fmt.Errorf("probing data in %s.%s.%s: %w", schemaName, table, column, err)
	}
	return hasData, nil
}

func (m *MySQL) Exec(ctx context.Context, ddl string) error {
	if _, err := m.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("executing DDL: %w", err)
	}
	return nil
}

func (m *MySQL) Close() error {
	if m.db != nil {
		err := m.db.Close()
		m.db = nil
		return err
	}
	return nil
}

// quoteIdentMySQL backtick-quotes a MySQL identifier.
func quoteIdentMySQL(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}
