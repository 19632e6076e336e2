// Package report renders a finished reconciliation run (an accumulated
// reconcile.Report) for the CLI's final output. It is deliberately
// separate from the Interaction Shim's live per-step messages: this
// package produces the one structured summary printed after a run ends.
package report

import (
	"fmt"
	"strings"

	"dbsync/internal/reconcile"
)

// Format is an enum of the supported output formats.
type Format string

const (
	FormatHuman   Format = "human"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

// Formatter renders a finished run report as a string.
type Formatter interface {
	Format(*reconcile.Report) (string, error)
}

// NewFormatter resolves a Formatter by name. An empty name defaults to
// human.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatHuman:
		return humanFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'human', 'json', or 'summary'", name)
	}
}
