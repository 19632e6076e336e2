package report

import (
	"encoding/json"

	"dbsync/internal/reconcile"
)

type jsonFormatter struct{}

type operationPayload struct {
	Kind    string `json:"kind"`
	Phase   string `json:"phase"`
	Module  string `json:"module,omitempty"`
	Table   string `json:"table,omitempty"`
	Action  string `json:"action,omitempty"`
	SQL     string `json:"sql,omitempty"`
	Message string `json:"message,omitempty"`
}

type countsPayload struct {
	Executed int `json:"executed"`
	Skipped  int `json:"skipped"`
	Notes    int `json:"notes"`
}

type reportPayload struct {
	Format     string              `json:"format"`
	Summary    countsPayload       `json:"summary"`
	Operations []operationPayload `json:"operations"`
}

func (jsonFormatter) Format(r *reconcile.Report) (string, error) {
	payload := reportPayload{Format: string(FormatJSON)}
	if r != nil {
		counts := r.Summarize()
		payload.Summary = countsPayload{Executed: counts.Executed, Skipped: counts.Skipped, Notes: counts.Notes}
		for _, op := range r.Operations {
			payload.Operations = append(payload.Operations, operationPayload{
				Kind:    string(op.Kind),
				Phase:   op.Phase,
				Module:  op.Module,
				Table:   op.Table,
				Action:  string(op.Action),
				SQL:     op.SQL,
				Message: op.Message,
			})
		}
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}
