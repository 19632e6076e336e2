package gateway

import "fmt"

// Error is the typed gateway error raised by every failing operation. It
// carries enough context — module, schema, offending statement — for the
// engine to report precisely which connection and statement failed
// (spec §4.4).
type Error struct {
	Module    string
	Schema    string
	Statement string
	Op        string
	Err       error
}

func (e *Error) Error() string {
	if e.Statement != "" {
		return fmt.Sprintf("gateway: module %q schema %q: %s: %v\n  statement: %s", e.Module, e.Schema, e.Op, e.Err, e.Statement)
	}
	return fmt.Sprintf("gateway: module %q schema %q: %s: %v", e.Module, e.Schema, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapErr(module, schema, op, statement string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Module: module, Schema: schema, Op: op, Statement: statement, Err: err}
}
