package submission

import (
	"fmt"

	goerrors "github.com/go-errors/errors"

	"github.com/jonathan/jobboard-forms/internal/jobform"
)

// Kind classifies a submission failure.
type Kind string

// Failure kinds
const (
	KindValidation Kind = "validation"
	KindNetwork    Kind = "network"
	KindServer     Kind = "server"
	KindRejected   Kind = "rejected"
)

// Error is the typed failure returned by Submit. Reason is safe to show to
// the user.
type Error struct {
	Kind   Kind
	Reason string
	Status int
	Fields jobform.FieldErrors
	Err    error
	stack  []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission %s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("submission %s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StackTrace returns the stack captured when the error was created.
func (e *Error) StackTrace() []byte {
	return e.stack
}

// Retryable reports whether resubmitting the same form may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindServer
}

func newError(kind Kind, reason string, status int, err error) *Error {
	var stack []byte
	if err != nil {
		stack = goerrors.Wrap(err, 2).Stack()
	} else {
		stack = goerrors.New(reason).Stack()
	}
	return &Error{
		Kind:   kind,
		Reason: reason,
		Status: status,
		Err:    err,
		stack:  stack,
	}
}

func newValidationError(fields jobform.FieldErrors) *Error {
	e := newError(KindValidation, "Please fix the highlighted fields before submitting.", 0, nil)
	e.Fields = fields
	return e
}
