package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/jobboard-forms/internal/store"
	"github.com/jonathan/jobboard-forms/internal/submission"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrConflict indicates a change the form refuses, such as removing the
// notice period.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrItemNotFound indicates a collection index that does not name a visible item.
type ErrItemNotFound struct {
	Collection string
	Index      int
}

func (e *ErrItemNotFound) Error() string {
	return fmt.Sprintf("%s item %d not found", e.Collection, e.Index)
}

// statusCoder is implemented by upstream API errors.
type statusCoder interface {
	StatusCode() int
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusInternalServerError
	}

	var (
		validationErr *ErrValidation
		conflictErr   *ErrConflict
		itemErr       *ErrItemNotFound
		submitErr     *submission.Error
		upstream      statusCoder
	)

	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &validationErr), errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest
	case errors.As(err, &conflictErr):
		return http.StatusConflict
	case errors.As(err, &itemErr):
		return http.StatusNotFound
	case errors.As(err, &submitErr):
		return submissionStatus(submitErr)
	case errors.As(err, &upstream):
		return upstreamStatus(upstream.StatusCode())
	default:
		return http.StatusInternalServerError
	}
}

func submissionStatus(e *submission.Error) int {
	switch e.Kind {
	case submission.KindValidation:
		return http.StatusUnprocessableEntity
	case submission.KindRejected:
		if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
			return http.StatusForbidden
		}
		return http.StatusUnprocessableEntity
	case submission.KindServer:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

// upstreamStatus maps a job posting API status onto ours.
func upstreamStatus(status int) int {
	switch {
	case status == http.StatusNotFound:
		return http.StatusNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}
