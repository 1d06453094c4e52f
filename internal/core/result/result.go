// Package result holds the envelope every service operation returns.
package result

import (
	"errors"

	"github.com/srgjo27/event_booking/internal/core/domain"
)

// Result is either a success with Data or a failure with Errors. Errors is
// never nil.
type Result[T any] struct {
	Success bool             `json:"success"`
	Data    T                `json:"data,omitempty"`
	Errors  []string         `json:"errors"`
	Kind    domain.ErrorKind `json:"-"`
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data, Errors: []string{}}
}

func Fail[T any](kind domain.ErrorKind, messages ...string) Result[T] {
	errs := make([]string, len(messages))
	copy(errs, messages)
	return Result[T]{Kind: kind, Errors: errs}
}

// FromError turns err into a failure. Business errors keep their message;
// everything else is reported generically.
func FromError[T any](err error) Result[T] {
	var de *domain.Error
	if errors.As(err, &de) {
		return Fail[T](de.Kind, de.Message)
	}
	return Fail[T](domain.KindInternal, domain.MsgSomethingWentWrong)
}

func (r Result[T]) Failure() bool {
	return !r.Success
}

// Err returns the first error message, or "" on success.
func (r Result[T]) Err() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}
