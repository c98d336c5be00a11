package core

import (
	"errors"
	"fmt"
)

// Kind classifies ledger errors so callers can translate them into
// user-facing responses without string matching.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindInvalid      Kind = "invalid"
	KindInvalidSplit Kind = "invalid_split"
	KindConflict     Kind = "conflict"
)

// Error is a kind-tagged domain error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NotFoundf builds a not-found error for a missing entity.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unauthorizedf builds an error for a mutation attempted by a profile that
// does not own the record.
func Unauthorizedf(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// Invalidf builds a validation error.
func Invalidf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

// InvalidSplitf builds an error for a split computation with no valid
// participants or a non-positive amount.
func InvalidSplitf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidSplit, Message: fmt.Sprintf(format, args...)}
}

// Conflictf builds an error for an operation blocked by existing references.
func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err, unwrapping as needed. Errors that are
// not domain errors report an empty Kind.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

var (
	ErrInvalidAmount = Invalidf("amount must be positive")
	ErrEmptyName     = Invalidf("empty name")
)
