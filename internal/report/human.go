package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"dbsync/internal/reconcile"
)

type humanFormatter struct{}

// Format renders the report as colored, section-headed text: executed
// statements, skipped statements, and notes, each grouped by phase.
func (humanFormatter) Format(r *reconcile.Report) (string, error) {
	if r == nil || len(r.Operations) == 0 {
		return "No operations recorded.\n", nil
	}

	heading := color.New(color.FgCyan, color.Bold)
	executedColor := color.New(color.FgGreen)
	skippedColor := color.New(color.FgYellow)
	noteColor := color.New(color.FgHiBlack)

	var sb strings.Builder
	counts := r.Summarize()

	heading.Fprintln(&sb, "Reconciliation Report")
	fmt.Fprintf(&sb, "executed=%d skipped=%d notes=%d\n", counts.Executed, counts.Skipped, counts.Notes)

	if executed := r.Executed(); len(executed) > 0 {
		heading.Fprintln(&sb, "\nExecuted")
		writeOperations(&sb, executed, executedColor)
	}
	if skipped := r.Skipped(); len(skipped) > 0 {
		heading.Fprintln(&sb, "\nSkipped")
		writeOperations(&sb, skipped, skippedColor)
	}
	if notes := r.Notes(); len(notes) > 0 {
		heading.Fprintln(&sb, "\nNotes")
		writeOperations(&sb, notes, noteColor)
	}

	return sb.String(), nil
}

func writeOperations(sb *strings.Builder, ops []reconcile.Operation, c *color.Color) {
	for _, op := range ops {
		line := formatOperation(op)
		c.Fprintln(sb, "  "+line)
	}
}

func formatOperation(op reconcile.Operation) string {
	label := op.Phase
	if op.Action != "" {
		label = fmt.Sprintf("%s:%s", op.Phase, op.Action)
	}
	switch {
	case op.SQL != "" && op.Table != "":
		return fmt.Sprintf("[%s] %s: %s — %s", label, op.Module, op.Table, op.SQL)
	case op.SQL != "":
		return fmt.Sprintf("[%s] %s: %s", label, op.Module, op.SQL)
	default:
		return fmt.Sprintf("[%s] %s: %s", label, op.Module, op.Message)
	}
}
