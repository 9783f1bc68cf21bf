package schema

import (
	"strings"
	"testing"
)

func validTable() TableDefinition {
	return TableDefinition{
		Name:        "users",
		Description: "Application users",
		Schema:      "public",
		Columns: []ColumnDefinition{
			{Name: "id", Type: "int", PrimaryKey: true},
			{Name: "email", Type: "string", Length: 100},
		},
	}
}

func TestValidate(t *testing.T) {
	if err := validTable().Validate(); err != nil {
		t.Fatalf("valid table failed validation: %v", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TableDefinition)
		wantSub string
	}{
		{"no name", func(d *TableDefinition) { d.Name = "" }, "name"},
		{"no description", func(d *TableDefinition) { d.Description = "" }, "description"},
		{"no schema", func(d *TableDefinition) { d.Schema = "" }, "schema"},
		{"no columns", func(d *TableDefinition) { d.Columns = nil }, "columns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validTable()
			tt.mutate(&def)
			err := def.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestValidate_DuplicateColumn(t *testing.T) {
	def := validTable()
	def.Columns = append(def.Columns, ColumnDefinition{Name: "Email", Type: "string"})

	err := def.Validate()
	if err == nil {
		t.Fatal("expected error for duplicate column name")
	}
	if !strings.Contains(err.Error(), "more than once") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ColumnShape(t *testing.T) {
	def := validTable()
	def.Columns[1].Type = ""

	if err := def.Validate(); err == nil {
		t.Fatal("expected error for column without type")
	}

	def = validTable()
	def.Columns[1].Length = -5
	if err := def.Validate(); err == nil {
		t.Fatal("expected error for negative length")
	}
}

func TestKey(t *testing.T) {
	def := validTable()
	def.Database = "appdb"
	if got, want := def.Key(), "appdb.public.users"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
	if got, want := def.Qualified(), "public.users"; got != want {
		t.Errorf("Qualified() = %q, want %q", got, want)
	}
}

func TestIsNullable(t *testing.T) {
	f := false
	tr := true

	tests := []struct {
		name string
		col  ColumnDefinition
		want bool
	}{
		{"default is nullable", ColumnDefinition{Name: "a", Type: "int"}, true},
		{"explicit false", ColumnDefinition{Name: "a", Type: "int", Nullable: &f}, false},
		{"explicit true", ColumnDefinition{Name: "a", Type: "int", Nullable: &tr}, true},
		{"primary key never nullable", ColumnDefinition{Name: "a", Type: "int", PrimaryKey: true, Nullable: &tr}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.col.IsNullable(); got != tt.want {
				t.Errorf("IsNullable() = %v, want %v", got, tt.want)
			}
		})
	}
}
