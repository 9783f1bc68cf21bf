package reconcile

import (
	"fmt"
	"strings"

	"github.com/schemactl/schemactl/internal/schema"
	"github.com/schemactl/schemactl/internal/typemap"
)

// serialTypes maps integer native types to their PostgreSQL auto-increment
// pseudo-types.
var serialTypes = map[string]string{
	"INTEGER":  "SERIAL",
	"BIGINT":   "BIGSERIAL",
	"SMALLINT": "SMALLSERIAL",
}

func quoteIdent(d typemap.Dialect, ident string) string {
	if d == typemap.DialectMySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func qualify(d typemap.Dialect, schemaName, table string) string {
	return quoteIdent(d, schemaName) + "." + quoteIdent(d, table)
}

// CreateSchemaSQL builds an idempotent schema creation statement.
func CreateSchemaSQL(d typemap.Dialect, schemaName string) string {
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", quoteIdent(d, schemaName))
}

// columnDDL renders one column clause for CREATE TABLE or ADD COLUMN.
func columnDDL(d typemap.Dialect, col *schema.ColumnDefinition, mapper *typemap.Mapper) (string, error) {
	native, err := mapper.Resolve(col.Type, col.Length)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", col.Name, err)
	}

	typeStr := native.String()
	var suffix string
	if col.AutoIncrement {
		switch d {
		case typemap.DialectMySQL:
			suffix = " AUTO_INCREMENT"
		default:
			serial, ok := serialTypes[native.Name]
			if !ok {
				return "", fmt.Errorf("column %s: auto_increment requires an integer type, got %s", col.Name, native.Name)
			}
			typeStr = serial
		}
	}

	clause := quoteIdent(d, col.Name) + " " + typeStr + suffix
	if !col.IsNullable() && !col.PrimaryKey {
		clause += " NOT NULL"
	}
	if col.Unique && !col.PrimaryKey {
		clause += " UNIQUE"
	}
	return clause, nil
}

// CreateTableSQL builds the full table creation statement, declaring every
// column and a table-level primary key constraint when any column is marked
// primary_key.
func CreateTableSQL(d typemap.Dialect, def *schema.TableDefinition, mapper *typemap.Mapper) (string, error) {
	clauses := make([]string, 0, len(def.Columns)+1)
	var pks []string

	for i := range def.Columns {
		col := &def.Columns[i]
		clause, err := columnDDL(d, col, mapper)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
		if col.PrimaryKey {
			pks = append(pks, quoteIdent(d, col.Name))
		}
	}

	if len(pks) > 0 {
		clauses = append(clauses, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)",
		qualify(d, def.Schema, def.Name), strings.Join(clauses, ",\n    ")), nil
}

// AddColumnSQL builds an ALTER TABLE ... ADD COLUMN statement.
func AddColumnSQL(d typemap.Dialect, schemaName, table string, col *schema.ColumnDefinition, mapper *typemap.Mapper) (string, error) {
	clause, err := columnDDL(d, col, mapper)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", qualify(d, schemaName, table), clause), nil
}

// AlterColumnTypeSQL builds a column type change statement.
func AlterColumnTypeSQL(d typemap.Dialect, schemaName, table string, col *schema.ColumnDefinition, mapper *typemap.Mapper) (string, error) {
	native, err := mapper.Resolve(col.Type, col.Length)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", col.Name, err)
	}

	if d == typemap.DialectMySQL {
		return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s",
			qualify(d, schemaName, table), quoteIdent(d, col.Name), native), nil
	}
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s",
		qualify(d, schemaName, table), quoteIdent(d, col.Name), native), nil
}

// DropColumnSQL builds an ALTER TABLE ... DROP COLUMN statement.
func DropColumnSQL(d typemap.Dialect, schemaName, table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		qualify(d, schemaName, table), quoteIdent(d, column))
}

// DropTableSQL builds a DROP TABLE statement.
func DropTableSQL(d typemap.Dialect, schemaName, table string) string {
	return fmt.Sprintf("DROP TABLE %s", qualify(d, schemaName, table))
}
