// Package sqlgen builds the DDL fragments the reconciliation engine issues.
// Every function here is pure: given a description of what the database
// should look like, it returns the SQL text to get there. None of them
// touch a connection.
package sqlgen

import (
	"fmt"
	"strings"

	"dbsync/internal/model"
)

// QuoteIdentifier backtick-quotes a MySQL identifier, doubling any embedded
// backtick.
func QuoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "`", "``")
	return "`" + name + "`"
}

// QuoteString single-quotes a MySQL string literal, escaping the bytes that
// matter to the MySQL text protocol.
func QuoteString(value string) string {
	var b strings.Builder
	b.Grow(len(value) + len(value)/10 + 2)

	b.WriteByte('\'')
	for _, char := range value {
		switch char {
		case '\'':
			b.WriteString("''")
		case '\\':
			b.WriteString(`\\`)
		case '\x00':
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\x1A':
			b.WriteString(`\Z`)
		default:
			b.WriteRune(char)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func typeClause(def *model.AttributeDefinition) string {
	base := strings.ToUpper(strings.TrimSpace(def.Type))
	if def.LengthOrValues == nil {
		return base
	}
	rendered := def.LengthOrValues.String()
	if rendered == "" {
		return base
	}
	if def.LengthOrValues.IsEnumValues() {
		return fmt.Sprintf("%s(%s)", base, rendered)
	}
	return fmt.Sprintf("%s(%s)", base, rendered)
}

func defaultClause(def *model.AttributeDefinition) string {
	if def.Default == nil {
		if def.AllowNull {
			return "DEFAULT NULL"
		}
		return ""
	}
	if *def.Default == model.CurrentTimestamp {
		return "DEFAULT " + model.CurrentTimestamp
	}
	return "DEFAULT " + QuoteString(*def.Default)
}

// ColumnClause renders the shared middle of every column DDL fragment:
// `col type[(lengthOrValues)] [NOT NULL] [DEFAULT ...]` (spec's column
// clause rule).
func ColumnClause(col string, def *model.AttributeDefinition) string {
	parts := []string{QuoteIdentifier(col), typeClause(def)}
	if !def.AllowNull {
		parts = append(parts, "NOT NULL")
	}
	if d := defaultClause(def); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, " ")
}

// AddColumn emits `ALTER TABLE t ADD COLUMN ...`.
func AddColumn(table, col string, def *model.AttributeDefinition) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", QuoteIdentifier(table), ColumnClause(col, def))
}

// ModifyColumn emits `ALTER TABLE t MODIFY COLUMN ...`.
func ModifyColumn(table, col string, def *model.AttributeDefinition) string {
	return fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;", QuoteIdentifier(table), ColumnClause(col, def))
}

// DropColumn emits `ALTER TABLE t DROP COLUMN c`.
func DropColumn(table, col string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", QuoteIdentifier(table), QuoteIdentifier(col))
}

// AlterPrimaryKey rebuilds the primary key column as a BIGINT
// auto-increment identity and (re)adds the PRIMARY KEY constraint on it.
func AlterPrimaryKey(table, pkCol string) string {
	return fmt.Sprintf(
		"ALTER TABLE %s MODIFY COLUMN %s BIGINT NOT NULL AUTO_INCREMENT FIRST, ADD PRIMARY KEY (%s);",
		QuoteIdentifier(table), QuoteIdentifier(pkCol), QuoteIdentifier(pkCol),
	)
}

// CreateTable emits the skeleton table used in phase 6: the primary key
// column only, with the primary key constraint inline.
func CreateTable(table, pkCol string) string {
	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY\n);",
		QuoteIdentifier(table), QuoteIdentifier(pkCol),
	)
}

func indexKeyword(choice model.IndexChoice) string {
	switch choice {
	case model.IndexChoiceUnique:
		return "UNIQUE INDEX"
	case model.IndexChoiceSpatial:
		return "SPATIAL INDEX"
	case model.IndexChoiceFulltext:
		return "FULLTEXT INDEX"
	default:
		return "INDEX"
	}
}

// AddIndex emits `CREATE [UNIQUE|SPATIAL|FULLTEXT] INDEX name ON table (col)
// [USING BTREE|HASH]`. The USING clause only applies to plain and unique
// indexes; MySQL does not accept it on SPATIAL or FULLTEXT indexes.
func AddIndex(table, indexName string, kind model.IndexChoice, col string, algorithm model.IndexAlgorithm) string {
	stmt := fmt.Sprintf("CREATE %s %s ON %s (%s)", indexKeyword(kind), QuoteIdentifier(indexName), QuoteIdentifier(table), QuoteIdentifier(col))
	if kind == model.IndexChoicePlain || kind == model.IndexChoiceUnique {
		if algorithm != "" {
			stmt += " USING " + string(algorithm)
		}
	}
	return stmt + ";"
}

// DropIndex emits `ALTER TABLE t DROP INDEX name`; callers must never pass
// the literal name "PRIMARY" here.
func DropIndex(table, name string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP INDEX %s;", QuoteIdentifier(table), QuoteIdentifier(name))
}

// AddForeignKey emits the fresh-named constraint-add statement described in
// the foreign-key reconciliation rules: ON DELETE SET NULL ON UPDATE
// CASCADE, always.
func AddForeignKey(table, constraintName, col, refTable, refCol string) string {
	return fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE SET NULL ON UPDATE CASCADE;",
		QuoteIdentifier(table), QuoteIdentifier(constraintName), QuoteIdentifier(col), QuoteIdentifier(refTable), QuoteIdentifier(refCol),
	)
}

// DropForeignKey emits `ALTER TABLE schema.table DROP FOREIGN KEY name`.
// schema may be empty when the gateway's connection is already scoped to
// the owning database.
func DropForeignKey(schema, table, constraintName string) string {
	target := QuoteIdentifier(table)
	if schema != "" {
		target = QuoteIdentifier(schema) + "." + target
	}
	return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s;", target, QuoteIdentifier(constraintName))
}

// DropTable emits a single `DROP TABLE a, b, c` statement for one or more
// tables, used by the "all" orphan-drop mode to remove a module's orphans
// in one round-trip.
func DropTable(tables ...string) string {
	quoted := make([]string, len(tables))
	for i, t := range tables {
		quoted[i] = QuoteIdentifier(t)
	}
	return fmt.Sprintf("DROP TABLE %s;", strings.Join(quoted, ", "))
}

// SetForeignKeyChecks emits the session-scoped FOREIGN_KEY_CHECKS toggle.
// The gateway's own SetForeignKeyChecks builds its statement itself and
// does not call this function.
func SetForeignKeyChecks(enabled bool) string {
	if enabled {
		return "SET FOREIGN_KEY_CHECKS = 1;"
	}
	return "SET FOREIGN_KEY_CHECKS = 0;"
}
