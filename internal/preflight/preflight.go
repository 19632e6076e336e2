// Package preflight classifies the risk of the destructive DDL statements
// the reconciliation engine is about to run, ahead of time, so the
// Interaction Shim can warn before anything irreversible
// happens. It parses the engine's own generated SQL through the same
// AST-based approach the teacher project uses for foreign, user-supplied
// migrations — here turned inward on statements this engine wrote itself.
package preflight

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // registers literal-value AST implementations
)

// Level ranks how dangerous a statement is.
type Level string

const (
	LevelCaution Level = "CAUTION"
	LevelDanger  Level = "DANGER"
)

// Finding is one classified statement.
type Finding struct {
	Statement string
	Level     Level
	Reason    string
}

// Classifier wraps the TiDB AST parser for reuse across a run.
type Classifier struct {
	parser *parser.Parser
}

// NewClassifier builds a reusable classifier.
func NewClassifier() *Classifier {
	return &Classifier{parser: parser.New()}
}

// Classify parses one statement and returns a Finding, or nil if the
// statement carries no elevated risk.
func (c *Classifier) Classify(statement string) *Finding {
	stmtNodes, _, err := c.parser.Parse(statement, "", "")
	if err != nil || len(stmtNodes) == 0 {
		return c.classifyUnparsed(statement)
	}
	return c.classifyNode(stmtNodes[0], statement)
}

// ClassifyBatch classifies every statement in order, skipping the ones
// found safe.
func (c *Classifier) ClassifyBatch(statements []string) []Finding {
	var findings []Finding
	for _, stmt := range statements {
		if f := c.Classify(stmt); f != nil {
			findings = append(findings, *f)
		}
	}
	return findings
}

func (c *Classifier) classifyNode(node ast.StmtNode, statement string) *Finding {
	switch stmt := node.(type) {
	case *ast.DropTableStmt:
		return &Finding{
			Statement: statement,
			Level:     LevelDanger,
			Reason:    "drops the table and all of its rows",
		}
	case *ast.AlterTableStmt:
		return c.classifyAlterTable(stmt, statement)
	default:
		return nil
	}
}

func (c *Classifier) classifyAlterTable(stmt *ast.AlterTableStmt, statement string) *Finding {
	for _, spec := range stmt.Specs {
		switch spec.Tp {
		case ast.AlterTableDropColumn:
			return &Finding{
				Statement: statement,
				Level:     LevelDanger,
				Reason:    "drops a column and the data it holds",
			}
		case ast.AlterTableDropForeignKey:
			return &Finding{
				Statement: statement,
				Level:     LevelCaution,
				Reason:    "drops a foreign key; it is recreated later in the same run",
			}
		}
	}
	return nil
}

func (c *Classifier) classifyUnparsed(statement string) *Finding {
	upper := strings.ToUpper(strings.TrimSpace(statement))
	switch {
	case strings.HasPrefix(upper, "DROP TABLE"):
		return &Finding{Statement: statement, Level: LevelDanger, Reason: "drops the table and all of its rows"}
	case strings.Contains(upper, "DROP COLUMN"):
		return &Finding{Statement: statement, Level: LevelDanger, Reason: "drops a column and the data it holds"}
	case strings.Contains(upper, "DROP FOREIGN KEY"):
		return &Finding{Statement: statement, Level: LevelCaution, Reason: "drops a foreign key; it is recreated later in the same run"}
	default:
		return nil
	}
}

// Summarize renders findings for the human report.
func Summarize(findings []Finding) string {
	if len(findings) == 0 {
		return "no destructive statements"
	}
	var b strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&b, "[%s] %s\n    %s\n", f.Level, f.Reason, f.Statement)
	}
	return b.String()
}
