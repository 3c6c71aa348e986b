// Package db provides PostgreSQL access for the submission audit log.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied by Migrate. Statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id      TEXT NOT NULL,
	session_id   TEXT NOT NULL,
	posting_id   TEXT,
	operation    TEXT NOT NULL,
	status       TEXT NOT NULL,
	error_kind   TEXT,
	reason       TEXT,
	http_status  INTEGER,
	requirements INTEGER NOT NULL DEFAULT 0,
	questions    INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS submissions_user_created_idx ON submissions (user_id, created_at DESC);
`

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the tables this package needs.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// RecordSubmission stores one submission attempt and returns the stored row.
func (db *DB) RecordSubmission(ctx context.Context, input *SubmissionInput) (*Submission, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var s Submission
	err := db.pool.QueryRow(ctx,
		`INSERT INTO submissions
		   (user_id, session_id, posting_id, operation, status, error_kind, reason, http_status, requirements, questions)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, 0), $9, $10)
		 RETURNING id, user_id, session_id, COALESCE(posting_id, ''), operation, status,
		           COALESCE(error_kind, ''), COALESCE(reason, ''), COALESCE(http_status, 0),
		           requirements, questions, created_at`,
		input.UserID, input.SessionID, input.PostingID, input.Operation, input.Status,
		input.ErrorKind, input.Reason, input.HTTPStatus, input.Requirements, input.Questions,
	).Scan(&s.ID, &s.UserID, &s.SessionID, &s.PostingID, &s.Operation, &s.Status,
		&s.ErrorKind, &s.Reason, &s.HTTPStatus, &s.Requirements, &s.Questions, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to record submission: %w", err)
	}
	return &s, nil
}

// ListSubmissionsByUser returns a user's most recent submissions, newest first.
func (db *DB) ListSubmissionsByUser(ctx context.Context, userID string, limit int) ([]Submission, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = DefaultListLimit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, session_id, COALESCE(posting_id, ''), operation, status,
		        COALESCE(error_kind, ''), COALESCE(reason, ''), COALESCE(http_status, 0),
		        requirements, questions, created_at
		 FROM submissions WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	submissions := []Submission{}
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.UserID, &s.SessionID, &s.PostingID, &s.Operation, &s.Status,
			&s.ErrorKind, &s.Reason, &s.HTTPStatus, &s.Requirements, &s.Questions, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}
