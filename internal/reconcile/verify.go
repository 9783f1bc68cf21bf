package reconcile

import (
	"context"
	"fmt"

	"github.com/schemactl/schemactl/internal/introspect"
	"github.com/schemactl/schemactl/internal/snapshot"
	"github.com/schemactl/schemactl/internal/typemap"
)

// VerifyShape re-reads every desired table over the given connection and
// reports any table that still differs from the snapshot. It is meant to run
// on a fresh read-only connection after a reconciliation pass.
func VerifyShape(ctx context.Context, conn introspect.Conn, st *snapshot.State, mapper *typemap.Mapper) []string {
	var mismatches []string

	for _, key := range sortedKeys(st.Tables) {
		def := st.Tables[key]

		exists, err := conn.TableExists(ctx, def.Schema, def.Name)
		if err != nil {
			mismatches = append(mismatches, fmt.Sprintf("%s: verification failed: %v", def.Qualified(), err))
			continue
		}
		if !exists {
			mismatches = append(mismatches, fmt.Sprintf("%s: table missing after reconciliation", def.Qualified()))
			continue
		}

		live, err := conn.Columns(ctx, def.Schema, def.Name)
		if err != nil {
			mismatches = append(mismatches, fmt.Sprintf("%s: verification failed: %v", def.Qualified(), err))
			continue
		}

		plan, err := BuildDiff(&def, live, mapper)
		if err != nil {
			mismatches = append(mismatches, fmt.Sprintf("%s: verification failed: %v", def.Qualified(), err))
			continue
		}
		if !plan.Empty() {
			mismatches = append(mismatches, fmt.Sprintf(
				"%s: still differs from desired state (%d to add, %d to drop, %d to alter)",
				def.Qualified(), len(plan.Add), len(plan.Drop), len(plan.Alter)))
		}
	}
	return mismatches
}
