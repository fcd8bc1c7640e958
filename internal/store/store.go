// Package store persists evaluation submissions. Backends: in-process memory,
// Redis and PostgreSQL.
package store

import (
	"context"
	"errors"

	"appforge/internal/models"
)

// ErrNotFound is returned when no submission exists for a key.
var ErrNotFound = errors.New("submission not found")

// Store persists submissions keyed by SubmissionKey. Put overwrites an
// existing entry for the same key.
type Store interface {
	Put(ctx context.Context, sub *models.Submission) error
	Get(ctx context.Context, key string) (*models.Submission, error)
	List(ctx context.Context) ([]*models.Submission, error)
	Close() error
}
