package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Submission operations
const (
	OperationCreate = "create"
	OperationUpdate = "update"
)

// Submission statuses
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// List limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Submission is one recorded attempt to save a job posting.
type Submission struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	SessionID    string    `json:"session_id"`
	PostingID    string    `json:"posting_id,omitempty"`
	Operation    string    `json:"operation"`
	Status       string    `json:"status"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	HTTPStatus   int       `json:"http_status,omitempty"`
	Requirements int       `json:"requirements"`
	Questions    int       `json:"questions"`
	CreatedAt    time.Time `json:"created_at"`
}

// SubmissionInput is the data needed to record a submission.
type SubmissionInput struct {
	UserID       string
	SessionID    string
	PostingID    string
	Operation    string
	Status       string
	ErrorKind    string
	Reason       string
	HTTPStatus   int
	Requirements int
	Questions    int
}

// Validate checks the required fields and enumerations.
func (in *SubmissionInput) Validate() error {
	if in == nil {
		return fmt.Errorf("submission input is required")
	}
	if in.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if in.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	switch in.Operation {
	case OperationCreate, OperationUpdate:
	default:
		return fmt.Errorf("invalid operation %q", in.Operation)
	}
	switch in.Status {
	case StatusSucceeded, StatusFailed:
	default:
		return fmt.Errorf("invalid status %q", in.Status)
	}
	return nil
}
