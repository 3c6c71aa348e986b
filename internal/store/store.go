// Package store keeps in-progress form sessions between HTTP requests.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/jobboard-forms/internal/jobform"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 24 * time.Hour

var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("form session not found")
	// ErrInvalidID is returned for an empty session identifier.
	ErrInvalidID = errors.New("invalid form session id")
)

// Session is one user's in-progress job posting form.
type Session struct {
	ID        string
	OwnerID   string
	Form      *jobform.Form
	UpdatedAt time.Time
}

// Store persists sessions. Put refreshes the expiry.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// record is the serialized form of a session.
type record struct {
	OwnerID   string           `json:"ownerId"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Form      jobform.Snapshot `json:"form"`
}

func encode(s *Session) ([]byte, error) {
	if s.Form == nil {
		return nil, fmt.Errorf("session %s has no form", s.ID)
	}
	return json.Marshal(record{
		OwnerID:   s.OwnerID,
		UpdatedAt: s.UpdatedAt,
		Form:      s.Form.Snapshot(),
	})
}

func decode(id string, data []byte) (*Session, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode form session %s: %w", id, err)
	}
	return &Session{
		ID:        id,
		OwnerID:   r.OwnerID,
		UpdatedAt: r.UpdatedAt,
		Form:      jobform.Restore(r.Form),
	}, nil
}
