package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schemactl/schemactl/internal/typemap"
	"github.com/schemactl/schemactl/internal/workspace"
)

// Postgres implements Conn for PostgreSQL using a pgx pool capped at one
// connection.
type Postgres struct {
	connStr string
	pool    *pgxpool.Pool
}

// NewPostgres creates an unconnected PostgreSQL Conn.
func NewPostgres(conn *workspace.Connection) *Postgres {
	connStr := conn.DSN
	if connStr == "" {
		port := conn.Port
		if port == 0 {
			port = 5432
		}
		connStr = fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s",
			conn.Host, port, conn.Database, conn.User, conn.Password)
		if conn.SSL {
			connStr += " sslmode=require"
		} else {
			connStr += " sslmode=disable"
		}
	}
	return &Postgres{connStr: connStr}
}

func (p *Postgres) Connect(ctx context.Context) error {
	cfg, err := pgxpool.ParseConfig(p.connStr)
	if err != nil {
		return fmt.Errorf("parsing connection string: %w", err)
	}
	cfg.MaxConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("pinging PostgreSQL: %w", err)
	}

	p.pool = pool
	return nil
}

func (p *Postgres) Dialect() typemap.Dialect {
	return typemap.DialectPostgres
}

func (p *Postgres) SchemaExists(ctx context.Context, schemaName string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`,
		schemaName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking schema %s: %w", schemaName, err)
	}
	return exists, nil
}

func (p *Postgres) TableExists(ctx context.Context, schemaName, table string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2 AND table_type = 'BASE TABLE')`,
		schemaName, table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking table %s.%s: %w", schemaName, table, err)
	}
	return exists, nil
}

func (p *Postgres) ListTables(ctx context.Context, schemaName string) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = $1 AND table_type = 'BASE TABLE'
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

func (p *Postgres) Columns(ctx context.Context, schemaName, table string) ([]LiveColumn, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT column_name, data_type, is_nullable,
		        COALESCE(character_maximum_length, 0)
		 FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = $2
		 ORDER BY ordinal_position`,
		schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s.%s: %w", schemaName, table, err)
	}
	defer rows.Close()

	var cols []LiveColumn
	for rows.Next() {
		var (
			name, dataType, nullable string
			maxLen                   int
		)
		if err := rows.Scan(&name, &dataType, &nullable, &maxLen); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		if maxLen > 0 {
			dataType = fmt.Sprintf("%s(%d)", dataType, maxLen)
		}
		cols = append(cols, LiveColumn{
			Name:     name,
			DataType: dataType,
			Nullable: strings.EqualFold(nullable, "YES"),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns: %w", err)
	}
	return cols, nil
}

func (p *Postgres) ColumnHasData(ctx context.Context, schemaName, table, column string) (bool, error) {
	sql := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s.%s WHERE %s IS NOT NULL)`,
		quoteIdentPg(schemaName), quoteIdentPg(table), quoteIdentPg(column))

	var hasData bool
	if err := p.pool.QueryRow(ctx, sql).Scan(&hasData); err != nil {
		return false, fmt.Errorf("probing data in %s.%s.%s: %w", schemaName, table, column, err)
	}
	return hasData, nil
}

func (p *Postgres) Exec(ctx context.Context, ddl string) error {
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("executing DDL: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return nil
}

// quoteIdentPg double-quotes a PostgreSQL identifier.
func quoteIdentPg(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
