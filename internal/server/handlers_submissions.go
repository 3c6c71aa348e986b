package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/jobboard-forms/internal/db"
	"github.com/jonathan/jobboard-forms/internal/jobform"
	"github.com/jonathan/jobboard-forms/internal/store"
	"github.com/jonathan/jobboard-forms/internal/submission"
)

// SubmitResponse is returned when a posting was saved.
type SubmitResponse struct {
	SessionID string             `json:"session_id"`
	Outcome   submission.Outcome `json:"outcome"`
}

// SubmitErrorResponse describes a failed submission. The session is kept so
// the user can fix the form or retry.
type SubmitErrorResponse struct {
	Error     string              `json:"error"`
	Kind      submission.Kind     `json:"kind"`
	Retryable bool                `json:"retryable"`
	Fields    jobform.FieldErrors `json:"fields,omitempty"`
}

// SubmissionsResponse lists recorded submissions.
type SubmissionsResponse struct {
	Submissions []db.Submission `json:"submissions"`
}

// handleSubmit sends the form to the job posting API. A successful
// submission ends the session.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	creds, err := credentials(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sess, err := s.loadSession(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	outcome, err := s.submitter.Submit(r.Context(), sess.Form, creds)
	if err != nil {
		var serr *submission.Error
		if !errors.As(err, &serr) {
			s.fail(w, r, err)
			return
		}
		if serr.Kind != submission.KindValidation {
			s.recordSubmission(r.Context(), sess, creds, nil, serr)
		}
		s.jsonResponse(w, HTTPStatus(serr), SubmitErrorResponse{
			Error:     serr.Reason,
			Kind:      serr.Kind,
			Retryable: serr.Retryable(),
			Fields:    serr.Fields,
		})
		return
	}

	s.recordSubmission(r.Context(), sess, creds, outcome, nil)

	if err := s.store.Delete(r.Context(), sess.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("failed to discard submitted form session",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}

	status := http.StatusOK
	if outcome.Created {
		status = http.StatusCreated
	}
	s.jsonResponse(w, status, SubmitResponse{SessionID: sess.ID, Outcome: *outcome})
}

// recordSubmission writes an audit row. Audit failures never fail the request.
func (s *Server) recordSubmission(ctx context.Context, sess *store.Session, creds submission.Credentials, outcome *submission.Outcome, serr *submission.Error) {
	if s.audit == nil {
		return
	}

	input := &db.SubmissionInput{
		UserID:    creds.UserID,
		SessionID: sess.ID,
		PostingID: sess.Form.PostingID,
		Operation: db.OperationCreate,
	}
	if sess.Form.PostingID != "" {
		input.Operation = db.OperationUpdate
	}

	if outcome != nil {
		input.Status = db.StatusSucceeded
		input.PostingID = outcome.RecordID
		input.Requirements = outcome.Requirements
		input.Questions = outcome.Questions
	} else {
		input.Status = db.StatusFailed
		input.ErrorKind = string(serr.Kind)
		input.Reason = serr.Reason
		input.HTTPStatus = serr.Status
	}

	if _, err := s.audit.RecordSubmission(ctx, input); err != nil {
		s.logger.Warn("failed to record submission",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		s.errorResponse(w, http.StatusNotImplemented, "Submission history is not enabled")
		return
	}

	creds, err := credentials(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > db.MaxListLimit {
			s.fail(w, r, &ErrValidation{Field: "limit", Message: "must be between 1 and " + strconv.Itoa(db.MaxListLimit)})
			return
		}
	}

	list, err := s.audit.ListSubmissionsByUser(r.Context(), creds.UserID, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, SubmissionsResponse{Submissions: list})
}
