package typemap

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect identifies the SQL dialect a mapper targets.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// NativeType is a concrete database type descriptor. Length of 0 means the
// type carries no length qualifier.
type NativeType struct {
	Name   string
	Length int
}

func (n NativeType) String() string {
	if n.Length > 0 {
		return fmt.Sprintf("%s(%d)", n.Name, n.Length)
	}
	return n.Name
}

// UnknownTypeError reports a declared column type with no native mapping.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown column type %q", e.Type)
}

// Mapper resolves abstract declared type names to native descriptors for a
// single dialect, and normalizes introspected native type strings so the two
// can be compared. Two columns are considered type-equal exactly when their
// normalized native string renderings are equal.
type Mapper struct {
	dialect   Dialect
	aliases   map[string]string
	normalize map[string]string
	lenient   bool
}

// Types that keep a length qualifier after normalization. Everything else
// drops it: MySQL display widths like int(11) carry no type information, and
// numeric precision is deliberately ignored so a declared decimal never
// flaps against a live numeric(p,s).
var lengthTypes = map[string]bool{
	"VARCHAR": true,
	"CHAR":    true,
}

const defaultStringLength = 255

// New returns a Mapper for the given dialect. In lenient mode an unknown
// declared type falls back to the default string type instead of failing.
func New(dialect Dialect, lenient bool) *Mapper {
	m := &Mapper{dialect: dialect, lenient: lenient}
	switch dialect {
	case DialectMySQL:
		m.aliases = mysqlAliases()
		m.normalize = mysqlNormalize()
	default:
		m.dialect = DialectPostgres
		m.aliases = postgresAliases()
		m.normalize = postgresNormalize()
	}
	return m
}

// ForConnection returns a Mapper for a workspace connection type string.
func ForConnection(dbType string, lenient bool) (*Mapper, error) {
	switch strings.ToLower(dbType) {
	case "postgres", "postgresql":
		return New(DialectPostgres, lenient), nil
	case "mysql":
		return New(DialectMySQL, lenient), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}
}

// Dialect returns the dialect the mapper targets.
func (m *Mapper) Dialect() Dialect {
	return m.dialect
}

// Resolve maps an abstract type name and optional length to a native
// descriptor. Type names are case-insensitive.
func (m *Mapper) Resolve(abstract string, length int) (NativeType, error) {
	name, ok := m.aliases[strings.ToLower(strings.TrimSpace(abstract))]
	if !ok {
		if !m.lenient {
			return NativeType{}, &UnknownTypeError{Type: abstract}
		}
		name = "VARCHAR"
	}

	if lengthTypes[name] {
		if length > 0 {
			return NativeType{Name: name, Length: length}, nil
		}
		// Lengthless declarations get the database's own defaults so a
		// freshly created column introspects back as an exact match.
		switch name {
		case "VARCHAR":
			return NativeType{Name: name, Length: defaultStringLength}, nil
		case "CHAR":
			return NativeType{Name: name, Length: 1}, nil
		}
	}
	return NativeType{Name: name}, nil
}

// Normalize canonicalizes a native type string reported by introspection,
// e.g. "character varying(50)" becomes "VARCHAR(50)" and "int(11)" becomes
// "INTEGER". Unrecognized names are upper-cased unchanged.
func (m *Mapper) Normalize(native string) string {
	base, length := splitTypeArgs(native)

	name, ok := m.normalize[strings.ToLower(base)]
	if !ok {
		name = strings.ToUpper(base)
	}

	// tinyint(1) is how MySQL reports BOOLEAN
	if m.dialect == DialectMySQL && strings.ToLower(base) == "tinyint" && length == 1 {
		return "BOOLEAN"
	}

	if length > 0 && lengthTypes[name] {
		return fmt.Sprintf("%s(%d)", name, length)
	}
	return name
}

// Equal reports whether a resolved declared type and a live native type
// string refer to the same type.
func (m *Mapper) Equal(declared NativeType, live string) bool {
	return declared.String() == m.Normalize(live)
}

// splitTypeArgs splits "name(n[,s])" into the base name and the first
// numeric argument, if any.
func splitTypeArgs(s string) (base string, length int) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, 0
	}
	close := strings.IndexByte(s, ')')
	if close < open {
		return s, 0
	}
	base = strings.TrimSpace(s[:open])
	args := s[open+1 : close]
	if comma := strings.IndexByte(args, ','); comma >= 0 {
		args = args[:comma]
	}
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return base, 0
	}
	return base, n
}

func postgresAliases() map[string]string {
	return map[string]string{
		"int":       "INTEGER",
		"integer":   "INTEGER",
		"bigint":    "BIGINT",
		"smallint":  "SMALLINT",
		"string":    "VARCHAR",
		"varchar":   "VARCHAR",
		"char":      "CHAR",
		"text":      "TEXT",
		"float":     "FLOAT",
		"double":    "FLOAT",
		"real":      "FLOAT",
		"decimal":   "DECIMAL",
		"numeric":   "DECIMAL",
		"datetime":  "TIMESTAMP",
		"timestamp": "TIMESTAMP",
		"date":      "DATE",
		"time":      "TIME",
		"boolean":   "BOOLEAN",
		"bool":      "BOOLEAN",
		"binary":    "BYTEA",
	}
}

func postgresNormalize() map[string]string {
	return map[string]string{
		"integer":                     "INTEGER",
		"int":                         "INTEGER",
		"int4":                        "INTEGER",
		"bigint":                      "BIGINT",
		"int8":                        "BIGINT",
		"smallint":                    "SMALLINT",
		"int2":                        "SMALLINT",
		"character varying":           "VARCHAR",
		"varchar":                     "VARCHAR",
		"character":                   "CHAR",
		"char":                        "CHAR",
		"bpchar":                      "CHAR",
		"text":                        "TEXT",
		"real":                        "FLOAT",
		"float4":                      "FLOAT",
		"float8":                      "FLOAT",
		"double precision":            "FLOAT",
		"numeric":                     "DECIMAL",
		"decimal":                     "DECIMAL",
		"timestamp":                   "TIMESTAMP",
		"timestamp without time zone": "TIMESTAMP",
		"timestamp with time zone":    "TIMESTAMPTZ",
		"timestamptz":                 "TIMESTAMPTZ",
		"date":                        "DATE",
		"time":                        "TIME",
		"time without time zone":      "TIME",
		"boolean":                     "BOOLEAN",
		"bool":                        "BOOLEAN",
		"bytea":                       "BYTEA",
	}
}

func mysqlAliases() map[string]string {
	return map[string]string{
		"int":       "INTEGER",
		"integer":   "INTEGER",
		"bigint":    "BIGINT",
		"smallint":  "SMALLINT",
		"string":    "VARCHAR",
		"varchar":   "VARCHAR",
		"char":      "CHAR",
		"text":      "TEXT",
		"float":     "FLOAT",
		"double":    "FLOAT",
		"real":      "FLOAT",
		"decimal":   "DECIMAL",
		"numeric":   "DECIMAL",
		"datetime":  "DATETIME",
		"timestamp": "DATETIME",
		"date":      "DATE",
		"time":      "TIME",
		"boolean":   "BOOLEAN",
		"bool":      "BOOLEAN",
		"binary":    "BLOB",
	}
}

func mysqlNormalize() map[string]string {
	return map[string]string{
		"int":       "INTEGER",
		"integer":   "INTEGER",
		"bigint":    "BIGINT",
		"smallint":  "SMALLINT",
		"varchar":   "VARCHAR",
		"char":      "CHAR",
		"text":      "TEXT",
		"float":     "FLOAT",
		"double":    "FLOAT",
		"real":      "FLOAT",
		"decimal":   "DECIMAL",
		"numeric":   "DECIMAL",
		"datetime":  "DATETIME",
		"timestamp": "DATETIME",
		"date":      "DATE",
		"time":      "TIME",
		"blob":      "BLOB",
	}
}
