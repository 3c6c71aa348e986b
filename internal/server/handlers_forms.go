package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/jobboard-forms/internal/jobform"
	"github.com/jonathan/jobboard-forms/internal/server/middleware"
	"github.com/jonathan/jobboard-forms/internal/store"
	"github.com/jonathan/jobboard-forms/internal/submission"
)

// CreateFormRequest starts a form session. PostingID loads an existing posting for editing.
type CreateFormRequest struct {
	PostingID string `json:"posting_id" validate:"omitempty,max=64"`
}

// FormResponse is the client's view of a form session.
type FormResponse struct {
	ID         string             `json:"id"`
	Form       jobform.Snapshot   `json:"form"`
	Steps      []jobform.Step     `json:"steps"`
	Validation *jobform.Result    `json:"validation,omitempty"`
	Visible    *visibleCollection `json:"visible"`
}

// visibleCollection lists the items a user sees, keyed by the index used in item URLs.
type visibleCollection struct {
	Requirements []jobform.Indexed[jobform.RequirementItem] `json:"applicationRequirements"`
	Questions    []jobform.Indexed[jobform.CustomQuestion]  `json:"customQuestions"`
}

// credentials returns the caller's identity as set by the auth middleware.
func credentials(r *http.Request) (submission.Credentials, error) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		return submission.Credentials{}, err
	}
	return submission.Credentials{UserID: userID, Token: middleware.GetToken(r)}, nil
}

func (s *Server) formResponse(sess *store.Session, validation *jobform.Result) FormResponse {
	f := sess.Form
	return FormResponse{
		ID:         sess.ID,
		Form:       f.Snapshot(),
		Steps:      f.Steps().Steps(),
		Validation: validation,
		Visible: &visibleCollection{
			Requirements: f.Requirements.Visible(),
			Questions:    f.Questions.Visible(),
		},
	}
}

// fail writes err with the status HTTPStatus picks for it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	var validationErr *ErrValidation
	if errors.As(err, &validationErr) {
		s.jsonResponse(w, status, map[string]string{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		s.errorResponse(w, status, "Form not found")
		return
	}
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		s.errorResponse(w, status, http.StatusText(status))
		return
	}
	s.errorResponse(w, status, err.Error())
}

// loadSession fetches the caller's session named by the {id} path value.
// Sessions owned by someone else are reported as missing.
func (s *Server) loadSession(r *http.Request) (*store.Session, error) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != userID {
		return nil, store.ErrNotFound
	}
	return sess, nil
}

// mutate loads a session, applies fn and saves the result.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(*jobform.Form) (*jobform.Result, error)) {
	sess, err := s.loadSession(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	validation, err := fn(sess.Form)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.store.Put(r.Context(), sess); err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, status, s.formResponse(sess, validation))
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	creds, err := credentials(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateFormRequest
	if r.ContentLength != 0 {
		if err := s.decodeJSON(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	form := jobform.New()
	if req.PostingID != "" {
		form, err = s.loader.LoadForm(r.Context(), req.PostingID, creds)
		if err != nil {
			s.fail(w, r, err)
			return
		}
	}

	sess := &store.Session{ID: uuid.NewString(), OwnerID: creds.UserID, Form: form}
	if err := s.store.Put(r.Context(), sess); err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Info("form session created",
		zap.String("session_id", sess.ID),
		zap.String("user_id", creds.UserID),
		zap.String("posting_id", req.PostingID),
	)
	s.jsonResponse(w, http.StatusCreated, s.formResponse(sess, nil))
}

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.formResponse(sess, nil))
}

func (s *Server) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), sess.ID); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdatePosting merges the supplied top-level fields into the posting.
// Values are checked when the step is validated, not here.
func (s *Server) handleUpdatePosting(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusOK, func(f *jobform.Form) (*jobform.Result, error) {
		patched := f.Posting
		if err := decodeBody(r, &patched); err != nil {
			return nil, err
		}
		// The owner is attached at submission time.
		patched.UserID = f.Posting.UserID
		f.Posting = patched
		return nil, nil
	})
}

func (s *Server) handleNextStep(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusOK, func(f *jobform.Form) (*jobform.Result, error) {
		res := f.Steps().GoNext()
		return &res, nil
	})
}

func (s *Server) handlePreviousStep(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusOK, func(f *jobform.Form) (*jobform.Result, error) {
		f.Steps().GoBack()
		return nil, nil
	})
}

func (s *Server) handleGoToStep(w http.ResponseWriter, r *http.Request) {
	step, err := strconv.Atoi(r.PathValue("step"))
	if err != nil {
		s.fail(w, r, &ErrValidation{Field: "step", Message: "must be a number"})
		return
	}
	s.mutate(w, r, http.StatusOK, func(f *jobform.Form) (*jobform.Result, error) {
		if step < 1 || step > f.Steps().Last() {
			return nil, &ErrValidation{Field: "step", Message: "out of range"}
		}
		res := f.Steps().GoTo(step)
		return &res, nil
	})
}

func (s *Server) handleValidateStep(w http.ResponseWriter, r *http.Request) {
	step, err := strconv.Atoi(r.PathValue("step"))
	if err != nil {
		s.fail(w, r, &ErrValidation{Field: "step", Message: "must be a number"})
		return
	}

	sess, err := s.loadSession(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if step < 1 || step > sess.Form.Steps().Last() {
		s.fail(w, r, &ErrValidation{Field: "step", Message: "out of range"})
		return
	}

	s.jsonResponse(w, http.StatusOK, sess.Form.ValidateStep(step))
}
