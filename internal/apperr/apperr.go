// Package apperr classifies failures so the HTTP layer can pick a status
// without knowing which collaborator produced them.
package apperr

import (
	"errors"
	"fmt"
)

// Kind groups errors by who is at fault.
type Kind int

const (
	// KindUnknown is reported for errors that never went through this package.
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindCollaborator
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindCollaborator:
		return "collaborator"
	default:
		return "unknown"
	}
}

// Error carries a kind, a stable machine code and optional client-facing details.
// Err holds the underlying cause and is never sent to clients.
type Error struct {
	Kind    Kind
	Code    string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or missing client input.
func Validation(code string, details any) error {
	return &Error{Kind: KindValidation, Code: code, Details: details}
}

// NotFound reports an identifier that does not resolve.
func NotFound(code string) error {
	return &Error{Kind: KindNotFound, Code: code}
}

// Conflict reports a request that clashes with current state (duplicate key, stock).
func Conflict(code string, err error) error {
	return &Error{Kind: KindConflict, Code: code, Err: err}
}

// Collaborator wraps a failure of storage, rendering or a notification gateway.
func Collaborator(code string, err error) error {
	return &Error{Kind: KindCollaborator, Code: code, Err: err}
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool { return KindOf(err) == k }
