package reconcile

import "strings"

// OperationKind classifies one entry in a Report, mirroring the teacher's
// migration accumulation style but trimmed to what a reconciliation run
// actually produces.
type OperationKind string

const (
	OperationExecuted OperationKind = "executed"
	OperationSkipped  OperationKind = "skipped"
	OperationNote     OperationKind = "note"
)

// OperationAction tags the DDL-level shape of a recorded statement, so
// counts can be broken down the way spec §7 examples them ("3 Indexes
// added, 1 removed") rather than collapsed into one undifferentiated
// per-phase total.
type OperationAction string

const (
	ActionCreate OperationAction = "create"
	ActionAdd    OperationAction = "add"
	ActionModify OperationAction = "modify"
	ActionDrop   OperationAction = "drop"
)

// taggedStatement pairs a generated DDL fragment with the action it
// represents, for the reconciliation steps (columns, indexes) that emit a
// mix of adds, modifies, and drops in one pass.
type taggedStatement struct {
	Action OperationAction
	SQL    string
}

// Operation is one accumulated entry: a DDL statement that ran (or was
// skipped) on a module's connection, or an informational note.
type Operation struct {
	Kind    OperationKind
	Phase   string
	Module  string
	Table   string
	Action  OperationAction
	SQL     string
	Message string
}

// Report accumulates every operation across a run for the CLI's summary
// and json output formats.
type Report struct {
	Operations []Operation
}

func (r *Report) recordExecuted(phase, module, table string, action OperationAction, sql string) {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return
	}
	r.Operations = append(r.Operations, Operation{Kind: OperationExecuted, Phase: phase, Module: module, Table: table, Action: action, SQL: sql})
}

func (r *Report) recordSkipped(phase, module, table string, action OperationAction, sql string) {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return
	}
	r.Operations = append(r.Operations, Operation{Kind: OperationSkipped, Phase: phase, Module: module, Table: table, Action: action, SQL: sql})
}

func (r *Report) note(phase, message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	r.Operations = append(r.Operations, Operation{Kind: OperationNote, Phase: phase, Message: message})
}

// Executed returns every statement that actually ran, in run order.
func (r *Report) Executed() []Operation {
	return r.filterByKind(OperationExecuted)
}

// Skipped returns every statement the engine decided not to run (e.g. an
// orphan-table drop the operator declined).
func (r *Report) Skipped() []Operation {
	return r.filterByKind(OperationSkipped)
}

// Notes returns the informational entries.
func (r *Report) Notes() []Operation {
	return r.filterByKind(OperationNote)
}

func (r *Report) filterByKind(kind OperationKind) []Operation {
	out := make([]Operation, 0, len(r.Operations))
	for _, op := range r.Operations {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Counts tallies the whole run by operation kind (executed, skipped,
// note), used by the formatters.
type Counts struct {
	Executed int
	Skipped  int
	Notes    int
}

// Summarize computes Counts across the whole report.
func (r *Report) Summarize() Counts {
	var c Counts
	for _, op := range r.Operations {
		switch op.Kind {
		case OperationExecuted:
			c.Executed++
		case OperationSkipped:
			c.Skipped++
		case OperationNote:
			c.Notes++
		}
	}
	return c
}

// ActionCount is one (phase, action) tally, e.g. reconcile-columns/add: 3.
type ActionCount struct {
	Phase  string
	Action OperationAction
	Count  int
}

// CountsByPhaseAction breaks Executed+Skipped operations down by phase and
// action, in first-seen order, giving the "N added, M removed" style
// breakdown spec §7 examples ("3 Indexes added, 1 removed") rather than one
// undifferentiated count per phase.
func (r *Report) CountsByPhaseAction() []ActionCount {
	type key struct {
		phase  string
		action OperationAction
	}
	counts := make(map[key]int)
	var order []key
	for _, op := range r.Operations {
		if op.Action == "" {
			continue
		}
		if op.Kind != OperationExecuted && op.Kind != OperationSkipped {
			continue
		}
		k := key{op.Phase, op.Action}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
		}
		counts[k]++
	}
	out := make([]ActionCount, 0, len(order))
	for _, k := range order {
		out = append(out, ActionCount{Phase: k.phase, Action: k.action, Count: counts[k]})
	}
	return out
}
