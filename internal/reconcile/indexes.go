package reconcile

import (
	"strings"

	"dbsync/internal/caseconv"
	"dbsync/internal/gateway"
	"dbsync/internal/model"
	"dbsync/internal/sqlgen"
)

// reconcileIndexes implements §4.5.4 for one entity: add every declared
// index missing from the table, drop every existing index that isn't
// expected and isn't PRIMARY. existing is whatever the caller already
// fetched (a real introspection, or nil for a table this dry run hasn't
// actually created yet). fks must be the expectedForeignKeys already
// computed for this entity this run, so auto-created FK-backing indexes
// are recognized and left alone: by this run's constraint names, and, for
// indexes MySQL created under an earlier run's constraint name, by being a
// single-column index on an expected relationship column.
func reconcileIndexes(existing []gateway.IndexInfo, table string, e *model.EntityDefinition, policy caseconv.Policy, fks []expectedForeignKey) []taggedStatement {
	expectedNames := expectedIndexNames(e, fks, policy)
	fkColumns := make(map[string]bool, len(fks))
	for _, fk := range fks {
		fkColumns[fk.Column] = true
	}
	existingNames := make(map[string]bool, len(existing))
	for _, idx := range existing {
		existingNames[idx.Name] = true
	}

	var statements []taggedStatement
	for _, idx := range e.Indexes {
		name := caseconv.Normalize(idx.IndexName, policy)
		if existingNames[name] {
			continue
		}
		col := caseconv.Normalize(idx.Attribute, policy)
		statements = append(statements, taggedStatement{ActionAdd, sqlgen.AddIndex(table, name, idx.IndexChoice, col, idx.Type)})
	}

	for _, idx := range existing {
		if strings.EqualFold(idx.Name, "PRIMARY") {
			continue
		}
		if expectedNames[idx.Name] {
			continue
		}
		if len(idx.Columns) == 1 && fkColumns[idx.Columns[0]] {
			continue
		}
		statements = append(statements, taggedStatement{ActionDrop, sqlgen.DropIndex(table, idx.Name)})
	}

	return statements
}
