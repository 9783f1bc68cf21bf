package schema

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// TableDefinition is a single desired table as declared in a workspace
// document. Database is injected during desired-state assembly from the
// workspace connection and is not part of the document itself.
type TableDefinition struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Schema      string             `yaml:"schema"`
	Database    string             `yaml:"database,omitempty"`
	Columns     []ColumnDefinition `yaml:"columns"`
}

// ColumnDefinition is one column of a desired table. Nullable is a
// tri-state: an absent value means nullable, matching the usual database
// default for columns without an explicit constraint.
type ColumnDefinition struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	Length        int    `yaml:"length,omitempty"`
	PrimaryKey    bool   `yaml:"primary_key,omitempty"`
	AutoIncrement bool   `yaml:"auto_increment,omitempty"`
	Nullable      *bool  `yaml:"nullable,omitempty"`
	Unique        bool   `yaml:"unique,omitempty"`
}

// Key returns the snapshot map key for the table: "<database>.<schema>.<table>".
func (t *TableDefinition) Key() string {
	return fmt.Sprintf("%s.%s.%s", t.Database, t.Schema, t.Name)
}

// Qualified returns the schema-qualified table name.
func (t *TableDefinition) Qualified() string {
	return fmt.Sprintf("%s.%s", t.Schema, t.Name)
}

// IsNullable reports whether the column accepts NULL values. Primary key
// columns never do.
func (c *ColumnDefinition) IsNullable() bool {
	if c.PrimaryKey {
		return false
	}
	if c.Nullable == nil {
		return true
	}
	return *c.Nullable
}

// Validate checks the table document shape: name, description, and schema
// must be non-empty strings and columns a non-empty sequence with unique
// column names.
func (t TableDefinition) Validate() error {
	err := validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required.Error("table `name` is required and must be a string")),
		validation.Field(&t.Description, validation.Required.Error("table `description` is required and must be a string")),
		validation.Field(&t.Schema, validation.Required.Error("table `schema` is required and must be a string")),
		validation.Field(&t.Columns, validation.Required.Error("table `columns` is required and must be a sequence")),
	)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(t.Columns))
	for i, col := range t.Columns {
		if err := col.Validate(); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
		lower := strings.ToLower(col.Name)
		if seen[lower] {
			return fmt.Errorf("column %q is declared more than once", col.Name)
		}
		seen[lower] = true
	}
	return nil
}

// Validate checks a single column entry.
func (c ColumnDefinition) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required.Error("column `name` is required")),
		validation.Field(&c.Type, validation.Required.Error("column `type` is required")),
		validation.Field(&c.Length, validation.Min(0).Error("column `length` must not be negative")),
	)
}
