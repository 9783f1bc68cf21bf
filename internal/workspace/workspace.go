package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schemactl/schemactl/internal/schema"
	"github.com/schemactl/schemactl/internal/snapshot"
)

// ConfigCountError reports a workspace containing zero or multiple config
// documents; exactly one is required.
type ConfigCountError struct {
	Found int
}

func (e *ConfigCountError) Error() string {
	return fmt.Sprintf("workspace must contain exactly one config document, found %d", e.Found)
}

// Crawl walks the workspace tree and returns the config document path and
// the remaining table document paths. A document is any .yaml/.yml file;
// the config is the single file whose name contains "config.". The snapshot
// directory is skipped.
func Crawl(root string) (string, []string, error) {
	var configs, tables []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == snapshot.Dir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if strings.Contains(filepath.Base(path), "config.") {
			configs = append(configs, path)
		} else {
			tables = append(tables, path)
		}
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("walking workspace %s: %w", root, err)
	}

	if len(configs) != 1 {
		return "", nil, &ConfigCountError{Found: len(configs)}
	}

	sort.Strings(tables)
	return configs[0], tables, nil
}

// LoadConfig crawls the workspace and returns its parsed, validated config
// with secret references resolved.
func LoadConfig(root string) (*Config, error) {
	configPath, _, err := Crawl(root)
	if err != nil {
		return nil, err
	}
	return loadConfigFile(configPath)
}

func loadConfigFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := ParseDocument(raw, nil, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	if err := cfg.Connection.ResolveSecrets(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// BuildDesiredState assembles the workspace's desired tables: it crawls the
// tree, loads the config, renders each table document against the config
// context, validates it, and keys the result by "<database>.<schema>.<table>"
// with the connection's database injected.
//
// Two documents declaring the same schema and table collapse to the later
// path in sort order; cross-file duplicate detection is a known limitation.
func BuildDesiredState(root string) (map[string]schema.TableDefinition, *Config, error) {
	configPath, tablePaths, err := Crawl(root)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, nil, err
	}

	tables := make(map[string]schema.TableDefinition, len(tablePaths))
	for _, path := range tablePaths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading table document %s: %w", path, err)
		}

		var def schema.TableDefinition
		if err := ParseDocument(raw, cfg.Context, &def); err != nil {
			return nil, nil, fmt.Errorf("table document %s: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, nil, fmt.Errorf("validating table document %s: %w", path, err)
		}

		def.Database = cfg.Connection.Database
		tables[def.Key()] = def
	}

	return tables, cfg, nil
}
