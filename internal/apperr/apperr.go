package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindDuplicateKey      Kind = "duplicate_key"
	KindInvalidTransition Kind = "invalid_transition"
	KindInvalidArgument   Kind = "invalid_argument"
	KindInvalidState      Kind = "invalid_state"
	KindConflict          Kind = "conflict"
)

// Sentinels for errors.Is matching against any *Error of the same kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrDuplicateKey      = &Error{Kind: KindDuplicateKey, Msg: "duplicate key"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Msg: "invalid transition"}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument, Msg: "invalid argument"}
	ErrInvalidState      = &Error{Kind: KindInvalidState, Msg: "invalid state"}
	ErrConflict          = &Error{Kind: KindConflict, Msg: "concurrent modification"}
)

type Error struct {
	Kind Kind
	Op   string
	Msg  string

	// From and Operation are set for KindInvalidTransition only.
	From      string
	Operation string

	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Kind == KindInvalidTransition && e.Operation != "" {
		msg = fmt.Sprintf("cannot %s in status %s", e.Operation, e.From)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NotFound(op, entity, key string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf("%s %q not found", entity, key)}
}

func DuplicateKey(op, entity, key string) *Error {
	return &Error{Kind: KindDuplicateKey, Op: op, Msg: fmt.Sprintf("%s %q already exists", entity, key)}
}

func InvalidTransition(op, from, operation string) *Error {
	return &Error{Kind: KindInvalidTransition, Op: op, From: from, Operation: operation}
}

func InvalidArgument(op, msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Msg: msg}
}

func InvalidState(op, msg string) *Error {
	return &Error{Kind: KindInvalidState, Op: op, Msg: msg}
}

func Conflict(op, entity, key string) *Error {
	return &Error{Kind: KindConflict, Op: op, Msg: fmt.Sprintf("%s %q was modified concurrently", entity, key)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" for
// errors outside the taxonomy (store I/O failures and the like).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
