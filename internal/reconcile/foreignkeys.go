package reconcile

import (
	"fmt"

	"dbsync/internal/caseconv"
	"dbsync/internal/gateway"
	"dbsync/internal/model"
	"dbsync/internal/sqlgen"
)

// dropStaleForeignKeys implements phase 7 (the first relationships pass):
// every currently-stored FK whose constraint name is not in this run's
// freshly-generated expected set is dropped. existing is whatever the
// caller already fetched (a real introspection, or nil for a table this
// dry run hasn't actually created yet). Because expected names are
// regenerated every run, this always drops every FK that was stored by a
// prior run (spec §4.5.5) — that is the intended behavior, not a bug.
func dropStaleForeignKeys(schema, table string, existing []gateway.ForeignKeyInfo, fks []expectedForeignKey) []string {
	expectedNames := make(map[string]bool, len(fks))
	for _, fk := range fks {
		expectedNames[fk.ConstraintName] = true
	}

	var statements []string
	for _, fk := range existing {
		if expectedNames[fk.ConstraintName] {
			continue
		}
		statements = append(statements, sqlgen.DropForeignKey(schema, table, fk.ConstraintName))
	}
	return statements
}

// addExpectedForeignKeys implements phase 10 (the second relationships
// pass): recreate every expected FK constraint with its fresh name,
// referencing the related entity's primary key column.
func addExpectedForeignKeys(table string, e *model.EntityDefinition, dataModel *model.DataModel, policy caseconv.Policy, fks []expectedForeignKey) ([]string, error) {
	var statements []string
	for _, fk := range fks {
		relatedEntity, ok := relationshipFromColumn(e, fk.Column, policy)
		if !ok {
			// Upstream bug: a column in the expected set does not map back
			// to any declared relationship. Skip rather than emit a broken
			// FK, per spec §4.5.6.
			continue
		}
		related := dataModel.Entity(relatedEntity)
		if related == nil {
			return nil, fmt.Errorf("reconcile: relationship %q on entity has no matching top-level entity", relatedEntity)
		}
		refTable := caseconv.Normalize(relatedEntity, policy)
		refCol := caseconv.PrimaryKeyColumn(policy)
		statements = append(statements, sqlgen.AddForeignKey(table, fk.ConstraintName, fk.Column, refTable, refCol))
	}
	return statements, nil
}
