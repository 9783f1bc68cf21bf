package reconcile

import (
	"fmt"
	"strings"

	"github.com/schemactl/schemactl/internal/introspect"
	"github.com/schemactl/schemactl/internal/schema"
	"github.com/schemactl/schemactl/internal/typemap"
)

// DiffPlan holds the column changes needed to bring one live table to its
// desired shape. The three sets are disjoint; a plan is recomputed on every
// reconciliation run and never persisted.
type DiffPlan struct {
	Add   []schema.ColumnDefinition
	Drop  []introspect.LiveColumn
	Alter []schema.ColumnDefinition
}

// Empty reports whether the live table already matches the desired shape.
func (p *DiffPlan) Empty() bool {
	return len(p.Add) == 0 && len(p.Drop) == 0 && len(p.Alter) == 0
}

// BuildDiff compares a desired table against its live columns. A column
// counts as changed exactly when its resolved native type differs from the
// normalized live type string; names are matched case-insensitively.
func BuildDiff(def *schema.TableDefinition, live []introspect.LiveColumn, mapper *typemap.Mapper) (*DiffPlan, error) {
	liveByName := make(map[string]introspect.LiveColumn, len(live))
	for _, lc := range live {
		liveByName[strings.ToLower(lc.Name)] = lc
	}

	plan := &DiffPlan{}
	declared := make(map[string]bool, len(def.Columns))

	for _, col := range def.Columns {
		declared[strings.ToLower(col.Name)] = true

		native, err := mapper.Resolve(col.Type, col.Length)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", def.Qualified(), err)
		}

		lc, ok := liveByName[strings.ToLower(col.Name)]
		if !ok {
			plan.Add = append(plan.Add, col)
			continue
		}
		if !mapper.Equal(native, lc.DataType) {
			plan.Alter = append(plan.Alter, col)
		}
	}

	for _, lc := range live {
		if !declared[strings.ToLower(lc.Name)] {
			plan.Drop = append(plan.Drop, lc)
		}
	}

	return plan, nil
}
