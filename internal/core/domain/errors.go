package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type ErrorKind string

const (
	KindAuthorization     ErrorKind = "authorization"
	KindValidation        ErrorKind = "validation"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindNotFound          ErrorKind = "not_found"
	KindInternal          ErrorKind = "internal"
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrCapacityOverflow means more capacity was released than was ever
	// reserved. It is a programming error, never a business failure.
	ErrCapacityOverflow = errors.New("available capacity would exceed total capacity")
)

// Error is a business-rule failure carrying the exact message reported to
// callers.
type Error struct {
	Kind    ErrorKind
	Message string
	err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

func NewAuthorizationError(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

func NewValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NewNotFoundError(entity string, id uuid.UUID) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s with id %s not found", entity, id)}
}

func NewTransitionError(entity, action string, from fmt.Stringer) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("Cannot %s %s in state %s", action, entity, from),
		err:     ErrInvalidTransition,
	}
}

// KindOf classifies err. Anything that is not a *Error is internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}

	return KindInternal
}
