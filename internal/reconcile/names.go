package reconcile

import (
	"crypto/rand"
	"fmt"
	"time"

	"dbsync/internal/caseconv"
	"dbsync/internal/model"
)

// freshConstraintName returns a collision-resistant, non-deterministic
// foreign-key constraint name: a hex digest of a high-resolution
// timestamp plus a random component (spec §4.5.5). It is intentionally
// different every run so that matching expected-vs-stored FKs can only
// ever be done by set identity, never by name.
func freshConstraintName() string {
	var entropy [8]byte
	_, _ = rand.Read(entropy[:])
	return fmt.Sprintf("fk_%x_%x", time.Now().UnixNano(), entropy)
}

// expectedForeignKey is one (column, fresh constraint name) pair the
// engine expects to exist after phase 10. The related entity is not
// stored here: the engine re-derives it through relationshipFromColumn at
// the point it actually emits the FK, matching the reverse-lookup shape
// spec'd for that step.
type expectedForeignKey struct {
	Column         string
	ConstraintName string
}

// expectedForeignKeys computes expectedForeignKeys(E): one entry per
// (relationship, role) pair declared on the entity (spec §4.5.5).
func expectedForeignKeys(e *model.EntityDefinition, policy caseconv.Policy) []expectedForeignKey {
	var out []expectedForeignKey
	for _, relName := range e.RelationshipOrder {
		for _, role := range e.Relationships[relName] {
			out = append(out, expectedForeignKey{
				Column:         caseconv.RelationshipColumn(relName, role, policy),
				ConstraintName: freshConstraintName(),
			})
		}
	}
	return out
}

// relationshipFromColumn is the reverse lookup used when emitting an FK:
// given a relationship (FK) column name, find which related entity it
// belongs to by rebuilding every candidate column name the same way
// expectedForeignKeys does, and matching (spec §4.5.6).
func relationshipFromColumn(e *model.EntityDefinition, column string, policy caseconv.Policy) (relatedEntity string, ok bool) {
	for _, relName := range e.RelationshipOrder {
		for _, role := range e.Relationships[relName] {
			if caseconv.RelationshipColumn(relName, role, policy) == column {
				return relName, true
			}
		}
	}
	return "", false
}

// expectedColumnSet is every DB column name the model says table
// normalize(E) should have: the primary key, every attribute, the
// locking column (if enabled), and every relationship column. fks must be
// the single expectedForeignKeys(e, policy) computed for this run.
func expectedColumnSet(e *model.EntityDefinition, policy caseconv.Policy, fks []expectedForeignKey) map[string]bool {
	set := make(map[string]bool, len(e.Attributes)+len(e.Relationships)+2)
	set[caseconv.PrimaryKeyColumn(policy)] = true
	for _, attrName := range e.AttributeOrder {
		set[caseconv.Normalize(attrName, policy)] = true
	}
	if e.Options.EnforceLockingConstraints {
		set[caseconv.LockingColumn(policy)] = true
	}
	for _, fk := range fks {
		set[fk.Column] = true
	}
	return set
}

// expectedIndexNames is { constraintName(spec) | spec in expectedForeignKeys(E) }
// union { normalize(idx.indexName) | idx in E.indexes } (spec §4.5.4). It
// takes the already-computed expected FKs so the same fresh names used to
// create the constraints are the ones preserved here.
func expectedIndexNames(e *model.EntityDefinition, fks []expectedForeignKey, policy caseconv.Policy) map[string]bool {
	set := make(map[string]bool, len(fks)+len(e.Indexes))
	for _, fk := range fks {
		set[fk.ConstraintName] = true
	}
	for _, idx := range e.Indexes {
		set[caseconv.Normalize(idx.IndexName, policy)] = true
	}
	return set
}
