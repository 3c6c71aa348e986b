package jobapi

import (
	"encoding/json"

	"github.com/jonathan/jobboard-forms/internal/jobform"
	"github.com/jonathan/jobboard-forms/internal/submission"
)

// PayloadMode selects how sub-collection changes are encoded.
type PayloadMode string

const (
	// ModePartitioned sends {"create":[...],"update":[...],"delete":[...]} per collection.
	ModePartitioned PayloadMode = "partitioned"
	// ModeTagged sends one flat array per collection with an "action" on each item.
	ModeTagged PayloadMode = "tagged"
)

// ParsePayloadMode returns the mode named by s; empty means partitioned.
func ParsePayloadMode(s string) (PayloadMode, bool) {
	switch PayloadMode(s) {
	case "", ModePartitioned:
		return ModePartitioned, true
	case ModeTagged:
		return ModeTagged, true
	default:
		return "", false
	}
}

// requirementWire is a requirement as the posting API reads and writes it.
type requirementWire struct {
	ID          string `json:"_id,omitempty"`
	Requirement string `json:"requirement,omitempty"`
	Status      string `json:"status,omitempty"`
	Label       string `json:"label,omitempty"`
	Action      string `json:"action,omitempty"`
}

// questionWire is a custom question as the posting API reads and writes it.
type questionWire struct {
	ID       string `json:"_id,omitempty"`
	ClientID string `json:"id,omitempty"`
	Question string `json:"question,omitempty"`
	Action   string `json:"action,omitempty"`
}

type changesWire[T any] struct {
	Create []T `json:"create"`
	Update []T `json:"update"`
	Delete []T `json:"delete"`
}

// postingWire is the request body for create and update.
type postingWire struct {
	jobform.JobPosting
	Requirements any `json:"applicationRequirements"`
	Questions    any `json:"customQuestions"`
}

// envelope is the response wrapper used by every posting API endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type recordWire struct {
	ID string `json:"_id"`
}

func requirementToWire(e jobform.Entry[jobform.RequirementItem], withAction bool) requirementWire {
	w := requirementWire{ID: e.ID}
	if withAction {
		w.Action = string(e.Tag)
	}
	// Deletes only need the identifier.
	if e.Tag != jobform.TagDelete {
		w.Requirement = e.Value.Requirement
		w.Status = e.Value.Status
	}
	return w
}

func questionToWire(e jobform.Entry[jobform.CustomQuestion], withAction bool) questionWire {
	w := questionWire{ID: e.ID, ClientID: e.Value.ID}
	if withAction {
		w.Action = string(e.Tag)
	}
	if e.Tag != jobform.TagDelete {
		w.Question = e.Value.Question
	}
	return w
}

func mapEntries[T, W any](entries []jobform.Entry[T], withAction bool, conv func(jobform.Entry[T], bool) W) []W {
	out := make([]W, 0, len(entries))
	for _, e := range entries {
		out = append(out, conv(e, withAction))
	}
	return out
}

func encodeChanges[T, W any](cs submission.ChangeSet[T], mode PayloadMode, conv func(jobform.Entry[T], bool) W) any {
	if mode == ModeTagged {
		return mapEntries(cs.Tagged(), true, conv)
	}
	return changesWire[W]{
		Create: mapEntries(cs.Create, false, conv),
		Update: mapEntries(cs.Update, false, conv),
		Delete: mapEntries(cs.Delete, false, conv),
	}
}

// EncodePayload builds the JSON body for a submission.
func EncodePayload(s *submission.Submission, mode PayloadMode) ([]byte, error) {
	body := postingWire{
		JobPosting:   s.Posting,
		Requirements: encodeChanges(s.Requirements, mode, requirementToWire),
		Questions:    encodeChanges(s.Questions, mode, questionToWire),
	}
	return json.Marshal(body)
}
