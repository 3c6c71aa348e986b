package server

import (
	"net/http"
	"strconv"

	"github.com/jonathan/jobboard-forms/internal/jobform"
)

// RequirementRequest adds a requirement.
type RequirementRequest struct {
	Requirement string `json:"requirement" validate:"max=120"`
	Status      string `json:"status" validate:"max=120"`
}

// RequirementPatch changes the supplied requirement fields.
type RequirementPatch struct {
	Requirement *string `json:"requirement" validate:"omitempty,max=120"`
	Status      *string `json:"status" validate:"omitempty,max=120"`
}

// QuestionRequest adds or edits a custom question.
type QuestionRequest struct {
	Question string `json:"question" validate:"max=500"`
}

const (
	requirementsName = "applicationRequirements"
	questionsName    = "customQuestions"
)

// itemIndex parses the {index} path value.
func itemIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || index < 0 {
		return 0, &ErrValidation{Field: "index", Message: "must be a non-negative number"}
	}
	return index, nil
}

// visible reports whether index names an item the user can still see.
func visible[T any](c *jobform.Collection[T], index int) bool {
	e, ok := c.At(index)
	return ok && !e.Tombstoned()
}

func (s *Server) handleAddRequirement(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusCreated, func(f *jobform.Form) (*jobform.Result, error) {
		var req RequirementRequest
		if err := s.decodeJSON(r, &req); err != nil {
			return nil, err
		}
		item := jobform.RequirementItem{Requirement: req.Requirement, Status: req.Status}
		if _, ok := f.Requirements.Append(item); !ok {
			return nil, &ErrConflict{Message: "The form already has a notice period requirement"}
		}
		return nil, nil
	})
}

func (s *Server) handleUpdateRequirement(w http.ResponseWriter, r *http.Request) {
	index, err := itemIndex(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusOK, func(f *jobform.Form) (*jobform.Result, error) {
		var patch RequirementPatch
		if err := s.decodeJSON(r, &patch); err != nil {
			return nil, err
		}
		if !visible(f.Requirements, index) {
			return nil, &ErrItemNotFound{Collection: requirementsName, Index: index}
		}
		ok := f.Requirements.Update(index, func(item *jobform.RequirementItem) {
			if patch.Requirement != nil {
				item.Requirement = *patch.Requirement
			}
			if patch.Status != nil {
				item.Status = *patch.Status
			}
		})
		if !ok {
			return nil, &ErrConflict{Message: "The notice period requirement cannot be renamed or duplicated"}
		}
		return nil, nil
	})
}

func (s *Server) handleRemoveRequirement(w http.ResponseWriter, r *http.Request) {
	index, err := itemIndex(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusOK, func(f *jobform.Form) (*jobform.Result, error) {
		if !visible(f.Requirements, index) {
			return nil, &ErrItemNotFound{Collection: requirementsName, Index: index}
		}
		if !f.Requirements.Remove(index) {
			return nil, &ErrConflict{Message: "The notice period requirement cannot be removed"}
		}
		return nil, nil
	})
}

func (s *Server) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, http.StatusCreated, func(f *jobform.Form) (*jobform.Result, error) {
		var req QuestionRequest
		if err := s.decodeJSON(r, &req); err != nil {
			return nil, err
		}
		f.Questions.Append(jobform.NewQuestion(req.Question))
		return nil, nil
	})
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	index, err := itemIndex(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusOK, func(f *jobform.Form) (*jobform.Result, error) {
		var req QuestionRequest
		if err := s.decodeJSON(r, &req); err != nil {
			return nil, err
		}
		if !visible(f.Questions, index) {
			return nil, &ErrItemNotFound{Collection: questionsName, Index: index}
		}
		f.Questions.Update(index, func(q *jobform.CustomQuestion) { q.Question = req.Question })
		return nil, nil
	})
}

func (s *Server) handleRemoveQuestion(w http.ResponseWriter, r *http.Request) {
	index, err := itemIndex(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.mutate(w, r, http.StatusOK, func(f *jobform.Form) (*jobform.Result, error) {
		if !visible(f.Questions, index) {
			return nil, &ErrItemNotFound{Collection: questionsName, Index: index}
		}
		f.Questions.Remove(index)
		return nil, nil
	})
}
