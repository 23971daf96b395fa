package loom

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"go.uber.org/zap"
)

// ErrorKind classifies the failure taxonomy of §7: recoverable
// programmer errors the caller is expected to check for.
type ErrorKind int

const (
	// InvalidEntity means the id is zero, out of range, or not alive.
	InvalidEntity ErrorKind = iota
	// TypeTooLarge means a type would exceed MaxEntitiesInType.
	TypeTooLarge
	// UnknownComponent means the component id isn't registered, or a
	// value write targeted the wrong size.
	UnknownComponent
	// StageViolation means a mutation was attempted on the main stage
	// while iteration is in progress.
	StageViolation
	// Internal means an invariant was violated; fatal in debug builds.
	Internal
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidEntity:
		return "InvalidEntity"
	case TypeTooLarge:
		return "TypeTooLarge"
	case UnknownComponent:
		return "UnknownComponent"
	case StageViolation:
		return "StageViolation"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is loom's single error type; callers switch on Kind() rather
// than comparing sentinel values, matching the one-struct-per-case
// shape of the teacher's errors.go but collapsed around the taxonomy
// of spec §7.
type Error struct {
	Kind    ErrorKind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// assertInvariant panics with a traced Internal error when cond is
// false. Reserved for the breaches §7 calls fatal — a record's
// (table,row) not matching the table's entity at that row, and
// similar "this must never happen" conditions re-established by every
// transition.
func assertInvariant(cond bool, format string, args ...any) {
	if cond {
		return
	}
	err := newError(Internal, format, args...)
	logError("invariant breached", zap.Error(err))
	panic(bark.AddTrace(err))
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var le *Error
	if e, ok := err.(*Error); ok {
		le = e
	} else {
		return false
	}
	return le.Kind == kind
}
