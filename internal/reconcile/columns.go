package reconcile

import (
	"strings"

	"dbsync/internal/caseconv"
	"dbsync/internal/gateway"
	"dbsync/internal/model"
	"dbsync/internal/sqlgen"
)

// existingColumn is the normalized form of one `SHOW FULL COLUMNS` row
// (spec §4.5.3): Type split at its first '(' with the trailing ')'
// stripped, Null="NO" folded to allowNull=false, Default kept verbatim.
type existingColumn struct {
	Field          string
	Type           string
	LengthOrValues string
	Default        *string
	AllowNull      bool
}

func normalizeExistingColumn(c gateway.ColumnInfo) existingColumn {
	baseType, lengthOrValues := splitShowType(c.Type)
	return existingColumn{
		Field:          c.Field,
		Type:           baseType,
		LengthOrValues: lengthOrValues,
		Default:        c.Default,
		AllowNull:      strings.EqualFold(c.Null, "YES"),
	}
}

// splitShowType splits a `SHOW FULL COLUMNS` Type value such as
// "varchar(255)" or "enum('a','b')" into ("varchar", "255") / ("enum",
// "'a','b'"), and returns the value verbatim with no parenthesized suffix
// when there is none (e.g. "datetime" -> ("datetime", "")).
func splitShowType(raw string) (base, lengthOrValues string) {
	raw = strings.TrimSpace(raw)
	idx := strings.Index(raw, "(")
	if idx < 0 {
		return raw, ""
	}
	base = raw[:idx]
	inner := raw[idx+1:]
	inner = strings.TrimSuffix(inner, ")")
	return base, inner
}

// locking and foreign-key synthetic column definitions, per spec §4.5.3.
func lockingColumnDefinition() *model.AttributeDefinition {
	def := model.CurrentTimestamp
	return &model.AttributeDefinition{Type: "datetime", Default: &def, AllowNull: false}
}

func foreignKeyColumnDefinition() *model.AttributeDefinition {
	twenty := 20
	return &model.AttributeDefinition{Type: "bigint", LengthOrValues: &model.LengthOrValues{Int: &twenty}, AllowNull: true}
}

// missingPrimaryKeyPlaceholder is a nullable bigint shape used only as the
// intermediate step of repairing a primary key column that does not exist
// at all: the column must exist before sqlgen.AlterPrimaryKey can MODIFY
// it into the real BIGINT AUTO_INCREMENT PRIMARY KEY shape the glossary's
// primary-key invariant requires.
func missingPrimaryKeyPlaceholder() *model.AttributeDefinition {
	return &model.AttributeDefinition{Type: "bigint", AllowNull: true}
}

// attributeMatches reports whether the normalized existing column equals
// the model's attribute definition on every key in {type, lengthOrValues,
// default, allowNull}.
func attributeMatches(def *model.AttributeDefinition, existing existingColumn) bool {
	if !strings.EqualFold(def.Type, existing.Type) {
		return false
	}
	if !def.LengthOrValues.EqualAsString(existing.LengthOrValues) {
		return false
	}
	if !defaultMatches(def.Default, existing.Default) {
		return false
	}
	return def.AllowNull == existing.AllowNull
}

func defaultMatches(modelDefault, existingDefault *string) bool {
	if modelDefault == nil {
		return existingDefault == nil
	}
	if existingDefault == nil {
		return false
	}
	if *modelDefault == model.CurrentTimestamp {
		return strings.EqualFold(*existingDefault, model.CurrentTimestamp)
	}
	return *modelDefault == *existingDefault
}

// existingColumnIsBigint reports whether the FK-column type invariant
// ("require type bigint") holds.
func existingColumnIsBigint(existing existingColumn) bool {
	return strings.EqualFold(existing.Type, "bigint")
}

// existingColumnIsLockingShape reports whether the locking-column type
// invariant ("require type datetime with DEFAULT CURRENT_TIMESTAMP") holds.
func existingColumnIsLockingShape(existing existingColumn) bool {
	if !strings.EqualFold(existing.Type, "datetime") {
		return false
	}
	return existing.Default != nil && strings.EqualFold(*existing.Default, model.CurrentTimestamp)
}

// reconcileColumns implements §4.5.3 for one entity, returning the tagged
// DDL statements to run in order. It never introspects or executes
// anything itself: rows is whatever the caller already fetched (a real
// `SHOW FULL COLUMNS` for an existing table, or a synthesized skeleton for
// a table this run hasn't actually created yet). fks must be the single
// expectedForeignKeys(e, policy) computed for this run, so the
// relationship columns it adds and the constraint names phases 9-10 use
// later stay in agreement.
func reconcileColumns(rows []gateway.ColumnInfo, table string, e *model.EntityDefinition, policy caseconv.Policy, fks []expectedForeignKey) []taggedStatement {
	pkCol := caseconv.PrimaryKeyColumn(policy)
	lockingCol := caseconv.LockingColumn(policy)
	expected := expectedColumnSet(e, policy, fks)

	processed := make(map[string]bool, len(rows))
	relationshipProcessed := make(map[string]bool, len(rows))

	var statements []taggedStatement

	for _, row := range rows {
		existing := normalizeExistingColumn(row)
		c := existing.Field
		processed[c] = true

		switch {
		case c == pkCol:
			continue

		case !expected[c]:
			statements = append(statements, taggedStatement{ActionDrop, sqlgen.DropColumn(table, c)})

		default:
			attrName, isAttribute := denormalizedAttribute(e, c, policy)
			switch {
			case !isAttribute && c == lockingCol:
				if !existingColumnIsLockingShape(existing) {
					statements = append(statements, taggedStatement{ActionModify, sqlgen.ModifyColumn(table, c, lockingColumnDefinition())})
				}

			case !isAttribute:
				relationshipProcessed[c] = true
				if !existingColumnIsBigint(existing) {
					statements = append(statements, taggedStatement{ActionModify, sqlgen.ModifyColumn(table, c, foreignKeyColumnDefinition())})
				}

			default:
				def := e.Attributes[attrName]
				if !attributeMatches(&def, existing) {
					statements = append(statements, taggedStatement{ActionModify, sqlgen.ModifyColumn(table, c, &def)})
				}
			}
		}
	}

	statements = append(statements, attributesToAdd(table, e, policy, pkCol, lockingCol, processed)...)
	statements = append(statements, foreignKeyColumnsToAdd(table, fks, relationshipProcessed)...)

	return statements
}

// denormalizedAttribute resolves an existing DB column name back to a
// model attribute name, if any.
func denormalizedAttribute(e *model.EntityDefinition, column string, policy caseconv.Policy) (string, bool) {
	name := caseconv.Denormalize(column, policy)
	if _, ok := e.Attributes[name]; ok {
		return name, true
	}
	return "", false
}

func attributesToAdd(table string, e *model.EntityDefinition, policy caseconv.Policy, pkCol, lockingCol string, processed map[string]bool) []taggedStatement {
	var statements []taggedStatement

	wanted := make([]string, 0, len(e.AttributeOrder)+2)
	wanted = append(wanted, pkCol)
	for _, attrName := range e.AttributeOrder {
		wanted = append(wanted, caseconv.Normalize(attrName, policy))
	}
	if e.Options.EnforceLockingConstraints {
		wanted = append(wanted, lockingCol)
	}

	for _, col := range wanted {
		if processed[col] {
			continue
		}
		switch {
		case col == pkCol:
			// The primary key column does not exist at all. Add it as a
			// plain nullable placeholder first, then let AlterPrimaryKey
			// turn it into the real BIGINT AUTO_INCREMENT PRIMARY KEY
			// shape; MODIFY COLUMN has no column to act on otherwise.
			statements = append(statements,
				taggedStatement{ActionAdd, sqlgen.AddColumn(table, col, missingPrimaryKeyPlaceholder())},
				taggedStatement{ActionModify, sqlgen.AlterPrimaryKey(table, col)},
			)
		case col == lockingCol:
			statements = append(statements, taggedStatement{ActionAdd, sqlgen.AddColumn(table, col, lockingColumnDefinition())})
		default:
			attrName := caseconv.Denormalize(col, policy)
			def := e.Attributes[attrName]
			statements = append(statements, taggedStatement{ActionAdd, sqlgen.AddColumn(table, col, &def)})
		}
	}
	return statements
}

func foreignKeyColumnsToAdd(table string, fks []expectedForeignKey, relationshipProcessed map[string]bool) []taggedStatement {
	var statements []taggedStatement
	for _, fk := range fks {
		if relationshipProcessed[fk.Column] {
			continue
		}
		statements = append(statements, taggedStatement{ActionAdd, sqlgen.AddColumn(table, fk.Column, foreignKeyColumnDefinition())})
	}
	return statements
}
