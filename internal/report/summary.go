package report

import (
	"fmt"
	"strings"

	"dbsync/internal/reconcile"
)

type summaryFormatter struct{}

// Format renders a compact per-phase count, modeled on the "+N ~N -N"
// style of a counts-only summary.
func (summaryFormatter) Format(r *reconcile.Report) (string, error) {
	if r == nil || len(r.Operations) == 0 {
		return "No changes detected.\n", nil
	}

	counts := r.Summarize()

	var sb strings.Builder
	sb.WriteString("Reconciliation Summary\n")
	sb.WriteString("=======================\n\n")
	fmt.Fprintf(&sb, "Executed: %d\n", counts.Executed)
	fmt.Fprintf(&sb, "Skipped:  %d\n", counts.Skipped)
	fmt.Fprintf(&sb, "Notes:    %d\n", counts.Notes)

	byPhase := make(map[string]int)
	var phaseOrder []string
	for _, op := range r.Operations {
		if _, seen := byPhase[op.Phase]; !seen {
			phaseOrder = append(phaseOrder, op.Phase)
		}
		byPhase[op.Phase]++
	}

	if len(phaseOrder) > 0 {
		sb.WriteString("\nBy phase:\n")
		for _, phase := range phaseOrder {
			fmt.Fprintf(&sb, "  %-28s %d\n", phase, byPhase[phase])
		}
	}

	if breakdown := r.CountsByPhaseAction(); len(breakdown) > 0 {
		sb.WriteString("\nBy action:\n")
		for _, ac := range breakdown {
			fmt.Fprintf(&sb, "  %s\n", actionLabel(ac))
		}
	}

	return sb.String(), nil
}

// actionLabel renders one (phase, action) tally the way spec §7 examples
// phase output, e.g. "3 Indexes added, 1 removed" -> "3 indexes added".
func actionLabel(ac reconcile.ActionCount) string {
	noun, ok := phaseNouns[ac.Phase]
	if !ok {
		noun = ac.Phase
	}
	verb, ok := actionVerbs[ac.Action]
	if !ok {
		verb = string(ac.Action)
	}
	return fmt.Sprintf("%d %s %s", ac.Count, noun, verb)
}

var phaseNouns = map[string]string{
	"create-tables":           "tables",
	"drop-orphans":            "tables",
	"reconcile-columns":       "columns",
	"reconcile-indexes":       "indexes",
	"drop-stale-foreign-keys": "foreign keys",
	"add-foreign-keys":        "foreign keys",
}

var actionVerbs = map[reconcile.OperationAction]string{
	reconcile.ActionCreate: "created",
	reconcile.ActionAdd:    "added",
	reconcile.ActionModify: "modified",
	reconcile.ActionDrop:   "removed",
}
