// Package submission turns a finished job posting form into a change-set and
// hands it to the external posting API.
package submission

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/jobboard-forms/internal/jobform"
)

// Credentials identify the signed-in user. They come from the external
// authentication service and are only read.
type Credentials struct {
	UserID string
	Token  string
}

// ChangeSet partitions a sub-collection by lifecycle tag. Untagged items are
// left out: they need no server-side change.
type ChangeSet[T any] struct {
	Create []jobform.Entry[T] `json:"create"`
	Update []jobform.Entry[T] `json:"update"`
	Delete []jobform.Entry[T] `json:"delete"`
}

// Partition splits entries into creates, updates and deletes. Deletes of
// items that were never persisted are dropped.
func Partition[T any](entries []jobform.Entry[T]) ChangeSet[T] {
	cs := ChangeSet[T]{
		Create: []jobform.Entry[T]{},
		Update: []jobform.Entry[T]{},
		Delete: []jobform.Entry[T]{},
	}
	for _, e := range entries {
		switch e.Tag {
		case jobform.TagCreate:
			cs.Create = append(cs.Create, e)
		case jobform.TagUpdate:
			if e.Persisted() {
				cs.Update = append(cs.Update, e)
			} else {
				cs.Create = append(cs.Create, e)
			}
		case jobform.TagDelete:
			if e.Persisted() {
				cs.Delete = append(cs.Delete, e)
			}
		}
	}
	return cs
}

// Len returns the number of changes.
func (c ChangeSet[T]) Len() int {
	return len(c.Create) + len(c.Update) + len(c.Delete)
}

// Tagged returns every change as one list, creates first.
func (c ChangeSet[T]) Tagged() []jobform.Entry[T] {
	out := make([]jobform.Entry[T], 0, c.Len())
	out = append(out, c.Create...)
	out = append(out, c.Update...)
	out = append(out, c.Delete...)
	return out
}

// Submission is everything the posting API needs for one save.
type Submission struct {
	PostingID    string
	Posting      jobform.JobPosting
	Requirements ChangeSet[jobform.RequirementItem]
	Questions    ChangeSet[jobform.CustomQuestion]
	Credentials  Credentials
}

// IsUpdate reports whether the submission edits an existing posting.
func (s *Submission) IsUpdate() bool {
	return s.PostingID != ""
}

// PostingAPI is the external job posting collaborator.
type PostingAPI interface {
	CreatePosting(ctx context.Context, s *Submission) (string, error)
	UpdatePosting(ctx context.Context, postingID string, s *Submission) (string, error)
}

// Outcome describes a successful save.
type Outcome struct {
	RecordID     string `json:"recordId"`
	Created      bool   `json:"created"`
	Requirements int    `json:"requirementChanges"`
	Questions    int    `json:"questionChanges"`
}

// Assemble validates every step and builds the submission. The form is not
// modified.
func Assemble(f *jobform.Form, creds Credentials) (*Submission, error) {
	res := f.ValidateStep(jobform.StepReview)
	if !res.Valid {
		return nil, newValidationError(res.Errors)
	}

	posting := f.Posting
	if creds.UserID != "" {
		posting.UserID = creds.UserID
	}

	return &Submission{
		PostingID:    f.PostingID,
		Posting:      posting,
		Requirements: Partition(f.Requirements.Entries()),
		Questions:    Partition(f.Questions.Entries()),
		Credentials:  creds,
	}, nil
}

// Assembler submits forms to the posting API.
type Assembler struct {
	api    PostingAPI
	logger *zap.Logger
}

// NewAssembler returns an assembler bound to api.
func NewAssembler(api PostingAPI, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{api: api, logger: logger}
}

// Submit assembles f and sends it in a single request. Every failure is a
// *Error and leaves f untouched so the caller can retry.
func (a *Assembler) Submit(ctx context.Context, f *jobform.Form, creds Credentials) (*Outcome, error) {
	sub, err := Assemble(f, creds)
	if err != nil {
		return nil, err
	}

	var id string
	if sub.IsUpdate() {
		id, err = a.api.UpdatePosting(ctx, sub.PostingID, sub)
	} else {
		id, err = a.api.CreatePosting(ctx, sub)
	}
	if err != nil {
		serr := classify(ctx, err)
		a.logger.Warn("job posting submission failed",
			zap.String("posting_id", sub.PostingID),
			zap.String("kind", string(serr.Kind)),
			zap.Int("status", serr.Status),
			zap.Error(err),
			zap.ByteString("stack", serr.StackTrace()),
		)
		return nil, serr
	}

	if id == "" {
		id = sub.PostingID
	}

	a.logger.Info("job posting submitted",
		zap.String("record_id", id),
		zap.Bool("created", !sub.IsUpdate()),
		zap.Int("requirement_changes", sub.Requirements.Len()),
		zap.Int("question_changes", sub.Questions.Len()),
	)

	return &Outcome{
		RecordID:     id,
		Created:      !sub.IsUpdate(),
		Requirements: sub.Requirements.Len(),
		Questions:    sub.Questions.Len(),
	}, nil
}

// statusCoder is implemented by API errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

func classify(ctx context.Context, err error) *Error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindNetwork, "The request was cancelled or timed out. Please try again.", 0, err)
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		status := sc.StatusCode()
		switch {
		case status >= http.StatusInternalServerError:
			return newError(KindServer, "The job service is unavailable. Please try again later.", status, err)
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return newError(KindRejected, "You are not allowed to save this job posting.", status, err)
		case status >= http.StatusBadRequest:
			return newError(KindRejected, rejectionReason(err), status, err)
		}
	}

	return newError(KindNetwork, "Could not reach the job service. Please check your connection and try again.", 0, err)
}

// messager is implemented by API errors that carry a server message.
type messager interface {
	ServerMessage() string
}

func rejectionReason(err error) string {
	var m messager
	if errors.As(err, &m) && m.ServerMessage() != "" {
		return m.ServerMessage()
	}
	return "The job service rejected the posting."
}
