package reconcile

import (
	"fmt"
	"strings"
)

// ActionKind classifies a DDL step taken during a run.
type ActionKind string

const (
	ActionCreateSchema ActionKind = "create_schema"
	ActionCreateTable  ActionKind = "create_table"
	ActionAddColumn    ActionKind = "add_column"
	ActionAlterColumn  ActionKind = "alter_column_type"
	ActionDropColumn   ActionKind = "drop_column"
	ActionDropTable    ActionKind = "drop_table"
)

// Action is one executed DDL statement.
type Action struct {
	Kind   ActionKind
	Target string // qualified object the action applied to
	SQL    string
}

// Deferral records a destructive drop the data-loss guard skipped. A
// deferral is not an error; re-running with force clears it.
type Deferral struct {
	Table  string
	Column string // empty for table-level deferrals
	Reason string
}

// Result summarizes one reconciliation run. DDL failures and guard
// deferrals accumulate here instead of aborting the run; a run with a
// non-empty Errors slice succeeded with warnings.
type Result struct {
	Applied  []Action
	Deferred []Deferral
	Warnings []string
	Errors   []string
}

func (r *Result) apply(kind ActionKind, target, sql string) {
	r.Applied = append(r.Applied, Action{Kind: kind, Target: target, SQL: sql})
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) deferDrop(table, column, reason string) {
	r.Deferred = append(r.Deferred, Deferral{Table: table, Column: column, Reason: reason})
}

// Clean reports whether the run completed without errors, deferrals, or
// warnings.
func (r *Result) Clean() bool {
	return len(r.Errors) == 0 && len(r.Deferred) == 0 && len(r.Warnings) == 0
}

// Summary renders a human-readable run report.
func (r *Result) Summary() string {
	var b strings.Builder

	counts := make(map[ActionKind]int)
	for _, a := range r.Applied {
		counts[a.Kind]++
	}
	fmt.Fprintf(&b, "Applied %d DDL action(s)", len(r.Applied))
	if len(r.Applied) > 0 {
		var parts []string
		for _, kind := range []ActionKind{ActionCreateSchema, ActionCreateTable, ActionAddColumn, ActionAlterColumn, ActionDropColumn, ActionDropTable} {
			if counts[kind] > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", counts[kind], kind))
			}
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")

	for _, d := range r.Deferred {
		if d.Column != "" {
			fmt.Fprintf(&b, "deferred: %s.%s (%s)\n", d.Table, d.Column, d.Reason)
		} else {
			fmt.Fprintf(&b, "deferred: %s (%s)\n", d.Table, d.Reason)
		}
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "error: %s\n", e)
	}
	return b.String()
}
