package jobform

import (
	"encoding/json"
	"fmt"
)

// Form is one open job posting editor: the posting, its sub-collections and
// the step pointer. It is not safe for concurrent use.
type Form struct {
	// PostingID is set when the form edits an existing posting.
	PostingID    string
	Posting      JobPosting
	Requirements *Collection[RequirementItem]
	Questions    *Collection[CustomQuestion]

	steps *Controller
}

// New returns an empty form for a new posting.
func New() *Form {
	f := &Form{
		Requirements: NewRequirements(),
		Questions:    NewQuestions(),
	}
	f.steps = NewController(DefaultSteps, f.ValidateStep)
	return f
}

// FromExisting hydrates a form from a persisted posting.
func FromExisting(postingID string, posting JobPosting, reqs []Entry[RequirementItem], questions []Entry[CustomQuestion]) *Form {
	f := &Form{
		PostingID:    postingID,
		Posting:      posting,
		Requirements: LoadRequirements(reqs),
		Questions:    LoadQuestions(questions),
	}
	f.steps = NewController(DefaultSteps, f.ValidateStep)
	return f
}

// Steps returns the form's step controller.
func (f *Form) Steps() *Controller {
	return f.steps
}

// Draft returns the current state in the shape ValidateStep expects.
func (f *Form) Draft() Draft {
	return Draft{
		Posting:      f.Posting,
		Requirements: f.Requirements.Entries(),
		Questions:    f.Questions.Entries(),
	}
}

// ValidateStep validates step against the form's current state.
func (f *Form) ValidateStep(step int) Result {
	return ValidateStep(step, f.Draft())
}

// Snapshot is the serialized form used to park an open editor between requests.
type Snapshot struct {
	PostingID    string                   `json:"postingId,omitempty"`
	Posting      JobPosting               `json:"posting"`
	Requirements []Entry[RequirementItem] `json:"applicationRequirements"`
	Questions    []Entry[CustomQuestion]  `json:"customQuestions"`
	CurrentStep  int                      `json:"currentStep"`
}

// Snapshot captures the full form state, tombstones and tags included.
func (f *Form) Snapshot() Snapshot {
	return Snapshot{
		PostingID:    f.PostingID,
		Posting:      f.Posting,
		Requirements: f.Requirements.Entries(),
		Questions:    f.Questions.Entries(),
		CurrentStep:  f.steps.Current(),
	}
}

// Restore rebuilds a form from a snapshot. Tags are kept as saved, except on
// rows that still carry a legacy label.
func Restore(s Snapshot) *Form {
	f := &Form{
		PostingID:    s.PostingID,
		Posting:      s.Posting,
		Requirements: LoadRequirements(s.Requirements),
		Questions:    NewQuestions(),
	}
	f.Questions.Load(s.Questions)
	f.steps = NewController(DefaultSteps, f.ValidateStep)
	f.steps.Restore(s.CurrentStep)
	return f
}

// MarshalJSON encodes the form as its snapshot.
func (f *Form) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Snapshot())
}

// Unmarshal decodes a snapshot produced by MarshalJSON.
func Unmarshal(data []byte) (*Form, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode form snapshot: %w", err)
	}
	return Restore(s), nil
}
