package jobform

import "github.com/google/uuid"

// NewQuestions returns an empty custom question collection.
func NewQuestions() *Collection[CustomQuestion] {
	return NewCollection(Policy[CustomQuestion]{})
}

// LoadQuestions builds a custom question collection from persisted items.
// Items without a client identifier get one.
func LoadQuestions(entries []Entry[CustomQuestion]) *Collection[CustomQuestion] {
	c := NewQuestions()
	fixed := make([]Entry[CustomQuestion], len(entries))
	for i, e := range entries {
		if e.Value.ID == "" {
			e.Value.ID = uuid.NewString()
		}
		fixed[i] = e
	}
	c.Load(fixed)
	return c
}

// NewQuestion returns a blank question with a fresh client identifier.
func NewQuestion(text string) CustomQuestion {
	return CustomQuestion{ID: uuid.NewString(), Question: text}
}
