package reconcile

import (
	"errors"
	"fmt"
)

// Kind is the typed error classification the CLI maps to an exit code
// (spec §6, §7).
type Kind string

const (
	KindConfigError        Kind = "ConfigError"
	KindConnectError       Kind = "ConnectError"
	KindIntegrityError     Kind = "IntegrityError"
	KindIntrospectionError Kind = "IntrospectionError"
	KindDdlError           Kind = "DdlError"
	KindUserCancel         Kind = "UserCancel"
)

// Error is the single error type the engine returns; every failure mode
// in the reconciliation run carries one of these.
type Error struct {
	Kind    Kind
	Phase   string
	Module  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Module != "" {
		return fmt.Sprintf("%s in phase %q (module %q): %s: %v", e.Kind, e.Phase, e.Module, e.Message, e.Err)
	}
	return fmt.Sprintf("%s in phase %q: %s: %v", e.Kind, e.Phase, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, phase, module, message string, err error) *Error {
	return &Error{Kind: kind, Phase: phase, Module: module, Message: message, Err: err}
}

// ExitCode maps a Kind to the CLI exit code from spec §6: 0 success, 1
// validation failure, 2 DDL failure, 3 cancelled by user.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var re *Error
	if !errors.As(err, &re) {
		return 2
	}
	switch re.Kind {
	case KindConfigError:
		return 1
	case KindUserCancel:
		return 3
	case KindConnectError, KindIntegrityError, KindIntrospectionError, KindDdlError:
		return 2
	default:
		return 2
	}
}
