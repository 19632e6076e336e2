// Package interact is the Interaction Shim: the only place the engine talks
// to an operator. It is injected as a capability so the engine can run
// interactively against a terminal or headlessly against a scripted
// responder in tests (spec §6).
package interact

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Decision is the answer to a confirm() prompt.
type Decision string

const (
	DecisionYes  Decision = "yes"
	DecisionNo   Decision = "no"
	DecisionAll  Decision = "all"
	DecisionNone Decision = "none"
	DecisionList Decision = "list"
)

// Level is the severity of a reported message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Shim is the capability the engine depends on for all operator-facing
// I/O. Every database round-trip and every prompt is a suspension point;
// implementations are free to block.
type Shim interface {
	// Confirm asks a question and returns one of the allowed decisions.
	// allowed is the ordered set of acceptable answers; the first is the
	// implicit default shown to the operator.
	Confirm(prompt string, allowed ...Decision) (Decision, error)
	// Report surfaces a message under a named section at a severity level.
	Report(section, message string, level Level)
}

// Interactive is a Shim backed by a terminal: colored section headings via
// fatih/color, and a buffered stdin reader for prompts.
type Interactive struct {
	in  *bufio.Reader
	out io.Writer

	heading *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
}

// NewInteractive builds a terminal-backed Shim. fatih/color auto-detects
// whether out is a real terminal and disables ANSI codes otherwise.
func NewInteractive(in io.Reader, out io.Writer) *Interactive {
	return &Interactive{
		in:      bufio.NewReader(in),
		out:     out,
		heading: color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
	}
}

// Confirm prints the prompt with its allowed answers and blocks for a line
// of input, re-prompting on anything that doesn't match.
func (s *Interactive) Confirm(prompt string, allowed ...Decision) (Decision, error) {
	if len(allowed) == 0 {
		allowed = []Decision{DecisionYes, DecisionNo}
	}
	labels := make([]string, len(allowed))
	for i, d := range allowed {
		labels[i] = string(d)
	}

	for {
		fmt.Fprintf(s.out, "%s [%s]: ", prompt, strings.Join(labels, "|"))
		line, err := s.in.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("interact: failed to read answer: %w", err)
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer == "" {
			return allowed[0], nil
		}
		if d, ok := matchDecision(answer, allowed); ok {
			return d, nil
		}
		s.warn.Fprintf(s.out, "unrecognized answer %q, expected one of %s\n", answer, strings.Join(labels, "|"))
	}
}

func matchDecision(answer string, allowed []Decision) (Decision, bool) {
	aliases := map[string]Decision{
		"y":    DecisionYes,
		"yes":  DecisionYes,
		"n":    DecisionNo,
		"no":   DecisionNo,
		"a":    DecisionAll,
		"all":  DecisionAll,
		"none": DecisionNone,
		"l":    DecisionList,
		"list": DecisionList,
	}
	d, ok := aliases[answer]
	if !ok {
		return "", false
	}
	for _, a := range allowed {
		if a == d {
			return d, true
		}
	}
	return "", false
}

// Report writes a colored, leveled line under a section heading.
func (s *Interactive) Report(section, message string, level Level) {
	s.heading.Fprintf(s.out, "[%s] ", section)
	switch level {
	case LevelSuccess:
		s.success.Fprintln(s.out, message)
	case LevelWarn:
		s.warn.Fprintln(s.out, message)
	case LevelError:
		s.fail.Fprintln(s.out, message)
	default:
		fmt.Fprintln(s.out, message)
	}
}

// Headless is a Shim with no terminal behind it. Every Confirm call
// returns a documented, deterministic default rather than blocking,
// matching spec's "a deterministic default is used for each prompt; it
// must be documented and testable":
//
//   - master "Ready to proceed?" -> yes when AssumeYes is set, no otherwise
//   - orphan-table disposition   -> all when AssumeYes is set, none otherwise
//   - per-table drop confirm     -> mirrors the orphan-table default
//
// Every decision made is still recorded through Report so a run log shows
// exactly what was assumed.
type Headless struct {
	AssumeYes bool
	out       io.Writer
}

// NewHeadless builds a non-interactive Shim. assumeYes corresponds to the
// CLI's --yes flag.
func NewHeadless(out io.Writer, assumeYes bool) *Headless {
	return &Headless{AssumeYes: assumeYes, out: out}
}

// Confirm never blocks: it picks the deterministic default for the
// supplied allowed set and reports the choice it made.
func (s *Headless) Confirm(prompt string, allowed ...Decision) (Decision, error) {
	if len(allowed) == 0 {
		allowed = []Decision{DecisionYes, DecisionNo}
	}

	def := DecisionNo
	if s.AssumeYes {
		def = DecisionYes
	}
	if containsDecision(allowed, DecisionAll) || containsDecision(allowed, DecisionNone) {
		def = DecisionNone
		if s.AssumeYes {
			def = DecisionAll
		}
	}
	if !containsDecision(allowed, def) {
		def = allowed[0]
	}

	s.Report("interact", fmt.Sprintf("headless default for %q: %s", prompt, def), LevelInfo)
	return def, nil
}

func containsDecision(allowed []Decision, d Decision) bool {
	for _, a := range allowed {
		if a == d {
			return true
		}
	}
	return false
}

// Report writes a plain, unconditional line; headless runs are typically
// piped to a log file rather than a terminal.
func (s *Headless) Report(section, message string, level Level) {
	fmt.Fprintf(s.out, "[%s] %s: %s\n", strings.ToUpper(string(level)), section, message)
}
