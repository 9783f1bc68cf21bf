package workspace

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config is the single workspace configuration document. Context holds the
// template variables available to table documents, Connection the database
// to reconcile against, and Schemas the namespaces this workspace manages.
type Config struct {
	Context    map[string]any `yaml:"context"`
	Connection Connection     `yaml:"connection"`
	Schemas    []SchemaDecl   `yaml:"schemas"`
}

// Connection describes the target database. Either the discrete fields or a
// full DSN may be given; credential fields accept ${ENV:...}, ${VAULT:...}
// and ${AWS_SM:...} secret references.
type Connection struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database"`
	SSL      bool   `yaml:"ssl,omitempty"`
	DSN      string `yaml:"dsn,omitempty"`
}

// SchemaDecl declares one managed schema.
type SchemaDecl struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// Validate checks the config document shape: context and connection must be
// mappings and schemas a sequence of named entries.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Context, validation.NotNil.Error("config `context` is required and must be a mapping")),
		validation.Field(&c.Schemas, validation.NotNil.Error("config `schemas` is required and must be a sequence")),
	)
	if err != nil {
		return err
	}

	if err := c.Connection.Validate(); err != nil {
		return fmt.Errorf("connection: %w", err)
	}
	for i, s := range c.Schemas {
		if s.Name == "" {
			return fmt.Errorf("schemas[%d]: `name` is required", i)
		}
	}
	return nil
}

// Validate checks the connection mapping.
func (c Connection) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required.Error("`type` is required"),
			validation.In("postgres", "postgresql", "mysql").Error("`type` must be postgres, postgresql, or mysql")),
		validation.Field(&c.Database, validation.Required.Error("`database` is required")),
		validation.Field(&c.Host, validation.Required.When(c.DSN == "").Error("`host` is required unless `dsn` is set")),
	)
}

// SchemaNames returns the declared schema names in document order.
func (c *Config) SchemaNames() []string {
	names := make([]string, 0, len(c.Schemas))
	for _, s := range c.Schemas {
		names = append(names, s.Name)
	}
	return names
}
