package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/schemactl/schemactl/internal/introspect"
	"github.com/schemactl/schemactl/internal/schema"
	"github.com/schemactl/schemactl/internal/snapshot"
	"github.com/schemactl/schemactl/internal/typemap"
)

// Engine reconciles a live database's schema to a desired snapshot. Tables
// are processed one at a time; each DDL statement executes and commits
// independently, so a failure on one column never aborts sibling actions.
//
// Force authorizes destructive drops that the data-loss guard or the
// interactive confirmation would otherwise hold back. Confirm, when set,
// reads one line of operator input for table-level drops; the drop proceeds
// only if the answer is exactly the qualified table name.
type Engine struct {
	Conn    introspect.Conn
	Mapper  *typemap.Mapper
	Logger  *slog.Logger
	Force   bool
	Confirm func(prompt string) string
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Build reconciles every table in the snapshot and then sweeps stale tables
// from the managed schemas. Schema creation precedes table work, and all
// table creation precedes the sweep, so a freshly created table is never
// flagged stale within the same pass.
//
// Type resolution for the whole snapshot is checked up front: an unknown
// declared type aborts before any DDL is issued.
func (e *Engine) Build(ctx context.Context, st *snapshot.State, managedSchemas []string) (*Result, error) {
	if err := e.preflight(st); err != nil {
		return nil, err
	}

	res := &Result{}

	for _, schemaName := range e.schemaNames(st, managedSchemas) {
		e.ensureSchema(ctx, schemaName, res)
	}

	for _, key := range sortedKeys(st.Tables) {
		def := st.Tables[key]
		e.reconcileTable(ctx, &def, res)
	}

	e.sweepStale(ctx, st, managedSchemas, res)
	return res, nil
}

// Drop removes every live table in the managed schemas. Without force, each
// table requires interactive confirmation by its qualified name.
func (e *Engine) Drop(ctx context.Context, st *snapshot.State, managedSchemas []string) (*Result, error) {
	res := &Result{}

	for _, schemaName := range e.schemaNames(st, managedSchemas) {
		tables, err := e.Conn.ListTables(ctx, schemaName)
		if err != nil {
			res.errorf("listing tables in %s: %v", schemaName, err)
			continue
		}
		for _, table := range tables {
			e.dropTable(ctx, schemaName, table, res)
		}
	}
	return res, nil
}

// preflight resolves every declared column type so that mapping failures
// surface before any side effect.
func (e *Engine) preflight(st *snapshot.State) error {
	for _, key := range sortedKeys(st.Tables) {
		def := st.Tables[key]
		for _, col := range def.Columns {
			if _, err := e.Mapper.Resolve(col.Type, col.Length); err != nil {
				return fmt.Errorf("table %s: %w", def.Qualified(), err)
			}
		}
	}
	return nil
}

// schemaNames returns the sorted union of explicitly managed schemas and
// the schemas referenced by desired tables (template rendering can point
// tables at schemas the config does not enumerate).
func (e *Engine) schemaNames(st *snapshot.State, managed []string) []string {
	set := make(map[string]bool, len(managed))
	for _, s := range managed {
		set[s] = true
	}
	for _, def := range st.Tables {
		set[def.Schema] = true
	}

	names := make([]string, 0, len(set))
	for s := range set {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) ensureSchema(ctx context.Context, schemaName string, res *Result) {
	exists, err := e.Conn.SchemaExists(ctx, schemaName)
	if err != nil {
		res.errorf("checking schema %s: %v", schemaName, err)
		return
	}
	if exists {
		return
	}

	sql := CreateSchemaSQL(e.Mapper.Dialect(), schemaName)
	if err := e.Conn.Exec(ctx, sql); err != nil {
		res.errorf("creating schema %s: %v", schemaName, err)
		return
	}
	e.logger().Info("created schema", "schema", schemaName)
	res.apply(ActionCreateSchema, schemaName, sql)
}

func (e *Engine) reconcileTable(ctx context.Context, def *schema.TableDefinition, res *Result) {
	qualified := def.Qualified()

	exists, err := e.Conn.TableExists(ctx, def.Schema, def.Name)
	if err != nil {
		res.errorf("checking table %s: %v", qualified, err)
		return
	}

	if !exists {
		sql, err := CreateTableSQL(e.Mapper.Dialect(), def, e.Mapper)
		if err != nil {
			res.errorf("table %s: %v", qualified, err)
			return
		}
		if err := e.Conn.Exec(ctx, sql); err != nil {
			res.errorf("creating table %s: %v", qualified, err)
			return
		}
		e.logger().Info("created table", "table", qualified, "columns", len(def.Columns))
		res.apply(ActionCreateTable, qualified, sql)
		return
	}

	live, err := e.Conn.Columns(ctx, def.Schema, def.Name)
	if err != nil {
		res.errorf("reading columns of %s: %v", qualified, err)
		return
	}

	plan, err := BuildDiff(def, live, e.Mapper)
	if err != nil {
		res.errorf("%v", err)
		return
	}
	if plan.Empty() {
		e.logger().Debug("table matches desired state", "table", qualified)
		return
	}

	for i := range plan.Add {
		col := &plan.Add[i]
		sql, err := AddColumnSQL(e.Mapper.Dialect(), def.Schema, def.Name, col, e.Mapper)
		if err != nil {
			res.errorf("table %s: %v", qualified, err)
			continue
		}
		if err := e.Conn.Exec(ctx, sql); err != nil {
			res.errorf("adding column %s.%s: %v", qualified, col.Name, err)
			continue
		}
		e.logger().Info("added column", "table", qualified, "column", col.Name)
		res.apply(ActionAddColumn, qualified+"."+col.Name, sql)
	}

	for i := range plan.Alter {
		col := &plan.Alter[i]
		sql, err := AlterColumnTypeSQL(e.Mapper.Dialect(), def.Schema, def.Name, col, e.Mapper)
		if err != nil {
			res.errorf("table %s: %v", qualified, err)
			continue
		}
		if err := e.Conn.Exec(ctx, sql); err != nil {
			res.errorf("altering column %s.%s: %v", qualified, col.Name, err)
			continue
		}
		e.logger().Info("altered column type", "table", qualified, "column", col.Name)
		res.apply(ActionAlterColumn, qualified+"."+col.Name, sql)
	}

	for _, lc := range plan.Drop {
		e.dropColumn(ctx, def.Schema, def.Name, lc.Name, res)
	}
}

// dropColumn is the guarded column drop: a column holding at least one
// non-null value is only dropped under force.
func (e *Engine) dropColumn(ctx context.Context, schemaName, table, column string, res *Result) {
	qualified := schemaName + "." + table

	hasData, err := e.Conn.ColumnHasData(ctx, schemaName, table, column)
	if err != nil {
		res.errorf("probing column %s.%s: %v", qualified, column, err)
		return
	}
	if hasData && !e.Force {
		e.logger().Warn("column holds data, drop deferred", "table", qualified, "column", column)
		res.deferDrop(qualified, column, "column holds data; re-run with --force to drop")
		return
	}

	sql := DropColumnSQL(e.Mapper.Dialect(), schemaName, table, column)
	if err := e.Conn.Exec(ctx, sql); err != nil {
		res.errorf("dropping column %s.%s: %v", qualified, column, err)
		return
	}
	e.logger().Info("dropped column", "table", qualified, "column", column)
	res.apply(ActionDropColumn, qualified+"."+column, sql)
}

// sweepStale drops live tables that no desired table claims. The sweep runs
// after all creates, so tables created in this pass are always in the
// desired set.
func (e *Engine) sweepStale(ctx context.Context, st *snapshot.State, managedSchemas []string, res *Result) {
	desired := make(map[string]bool, len(st.Tables))
	for _, def := range st.Tables {
		desired[strings.ToLower(def.Qualified())] = true
	}

	for _, schemaName := range e.schemaNames(st, managedSchemas) {
		tables, err := e.Conn.ListTables(ctx, schemaName)
		if err != nil {
			res.errorf("listing tables in %s: %v", schemaName, err)
			continue
		}
		for _, table := range tables {
			if desired[strings.ToLower(schemaName+"."+table)] {
				continue
			}
			e.dropTable(ctx, schemaName, table, res)
		}
	}
}

// dropTable is the guarded table drop: without force it requires the
// operator to type the qualified table name exactly.
func (e *Engine) dropTable(ctx context.Context, schemaName, table string, res *Result) {
	qualified := schemaName + "." + table

	if !e.Force {
		if e.Confirm == nil {
			res.warnf("table %s not dropped (force unset, no confirmation available)", qualified)
			return
		}
		answer := strings.TrimSpace(e.Confirm(fmt.Sprintf("Type %q to confirm dropping table %s: ", qualified, qualified)))
		if answer != qualified {
			e.logger().Warn("drop not confirmed, table retained", "table", qualified)
			res.warnf("table %s retained: confirmation did not match", qualified)
			return
		}
	}

	sql := DropTableSQL(e.Mapper.Dialect(), schemaName, table)
	if err := e.Conn.Exec(ctx, sql); err != nil {
		res.errorf("dropping table %s: %v", qualified, err)
		return
	}
	e.logger().Info("dropped table", "table", qualified)
	res.apply(ActionDropTable, qualified, sql)
}

func sortedKeys(m map[string]schema.TableDefinition) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
