package typemap

import (
	"errors"
	"testing"
)

func TestResolve_Postgres(t *testing.T) {
	m := New(DialectPostgres, false)

	tests := []struct {
		abstract string
		length   int
		want     string
	}{
		{"int", 0, "INTEGER"},
		{"Integer", 0, "INTEGER"},
		{"bigint", 0, "BIGINT"},
		{"smallint", 0, "SMALLINT"},
		{"string", 100, "VARCHAR(100)"},
		{"string", 0, "VARCHAR(255)"},
		{"char", 10, "CHAR(10)"},
		{"char", 0, "CHAR(1)"},
		{"text", 0, "TEXT"},
		{"float", 0, "FLOAT"},
		{"double", 0, "FLOAT"},
		{"decimal", 0, "DECIMAL"},
		{"numeric", 0, "DECIMAL"},
		{"datetime", 0, "TIMESTAMP"},
		{"date", 0, "DATE"},
		{"time", 0, "TIME"},
		{"boolean", 0, "BOOLEAN"},
		{"bool", 0, "BOOLEAN"},
		{"binary", 0, "BYTEA"},
	}

	for _, tt := range tests {
		t.Run(tt.abstract, func(t *testing.T) {
			got, err := m.Resolve(tt.abstract, tt.length)
			if err != nil {
				t.Fatalf("Resolve(%q, %d): %v", tt.abstract, tt.length, err)
			}
			if got.String() != tt.want {
				t.Errorf("Resolve(%q, %d) = %s, want %s", tt.abstract, tt.length, got, tt.want)
			}
		})
	}
}

func TestResolve_MySQLDifferences(t *testing.T) {
	m := New(DialectMySQL, false)

	tests := []struct {
		abstract string
		want     string
	}{
		{"datetime", "DATETIME"},
		{"binary", "BLOB"},
		{"boolean", "BOOLEAN"},
	}

	for _, tt := range tests {
		got, err := m.Resolve(tt.abstract, 0)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.abstract, err)
		}
		if got.String() != tt.want {
			t.Errorf("Resolve(%q) = %s, want %s", tt.abstract, got, tt.want)
		}
	}
}

func TestResolve_UnknownType(t *testing.T) {
	m := New(DialectPostgres, false)

	_, err := m.Resolve("geodata", 0)
	if err == nil {
		t.Fatal("expected error for unknown type in strict mode")
	}
	var ute *UnknownTypeError
	if !errors.As(err, &ute) {
		t.Fatalf("expected UnknownTypeError, got %T", err)
	}
	if ute.Type != "geodata" {
		t.Errorf("UnknownTypeError.Type = %q, want %q", ute.Type, "geodata")
	}
}

func TestResolve_UnknownTypeLenient(t *testing.T) {
	m := New(DialectPostgres, true)

	got, err := m.Resolve("geodata", 0)
	if err != nil {
		t.Fatalf("lenient mode should not fail: %v", err)
	}
	if got.String() != "VARCHAR(255)" {
		t.Errorf("lenient fallback = %s, want VARCHAR(255)", got)
	}
}

func TestNormalize_Postgres(t *testing.T) {
	m := New(DialectPostgres, false)

	tests := []struct {
		native string
		want   string
	}{
		{"integer", "INTEGER"},
		{"character varying(50)", "VARCHAR(50)"},
		{"character varying", "VARCHAR"},
		{"timestamp without time zone", "TIMESTAMP"},
		{"timestamp with time zone", "TIMESTAMPTZ"},
		{"double precision", "FLOAT"},
		{"numeric(10,2)", "DECIMAL"},
		{"bytea", "BYTEA"},
		{"uuid", "UUID"},
	}

	for _, tt := range tests {
		t.Run(tt.native, func(t *testing.T) {
			if got := m.Normalize(tt.native); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.native, got, tt.want)
			}
		})
	}
}

func TestNormalize_MySQL(t *testing.T) {
	m := New(DialectMySQL, false)

	tests := []struct {
		native string
		want   string
	}{
		{"int(11)", "INTEGER"},
		{"varchar(100)", "VARCHAR(100)"},
		{"tinyint(1)", "BOOLEAN"},
		{"datetime", "DATETIME"},
		{"blob", "BLOB"},
	}

	for _, tt := range tests {
		t.Run(tt.native, func(t *testing.T) {
			if got := m.Normalize(tt.native); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.native, got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	m := New(DialectPostgres, false)

	id, err := m.Resolve("int", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Equal(id, "integer") {
		t.Error("declared int should equal live integer")
	}

	name, err := m.Resolve("string", 50)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Equal(name, "character varying(50)") {
		t.Error("declared string(50) should equal live character varying(50)")
	}
	if m.Equal(name, "character varying(100)") {
		t.Error("declared string(50) should not equal live character varying(100)")
	}

	// A lengthless char declaration must match the character(1) Postgres
	// reports for it, or the column would re-alter on every run.
	ch, err := m.Resolve("char", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Equal(ch, "character(1)") {
		t.Error("declared char should equal live character(1)")
	}
}

func TestForConnection(t *testing.T) {
	if _, err := ForConnection("postgresql", false); err != nil {
		t.Errorf("postgresql: %v", err)
	}
	if _, err := ForConnection("mysql", false); err != nil {
		t.Errorf("mysql: %v", err)
	}
	if _, err := ForConnection("oracle", false); err == nil {
		t.Error("expected error for unsupported database type")
	}
}
