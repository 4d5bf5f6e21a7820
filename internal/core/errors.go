// Package core defines the shared error taxonomy for pantry operations.
// Every failure carries a Kind so callers can distinguish local I/O trouble
// from external-collaborator trouble from bad input, without inspecting
// error strings.
package core

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindIO covers ledger/reference file trouble: missing file, corrupt
	// rows, unparseable dates. Operations abort atomically on these.
	KindIO Kind = iota
	// KindExternal covers weather, classification, generation, and
	// messaging call failures.
	KindExternal
	// KindMalformed covers input rejected before any table mutation,
	// e.g. a classification payload missing required fields.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindExternal:
		return "external"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

// Error is the uniform failure payload returned by pantry operations.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "inventory.read"
	Err  error  // underlying cause
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with an operation name and kind.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is E with fmt.Errorf semantics for the cause.
func Errorf(kind Kind, op, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the Kind of err, or ok=false if err carries no Kind.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
