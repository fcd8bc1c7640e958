package models

import (
	"fmt"
	"time"
)

// Submission is one published artifact reference reported back by a build,
// stored keyed by email|task|round|nonce.
type Submission struct {
	Email       string    `json:"email"`
	Task        string    `json:"task"`
	Round       int       `json:"round"`
	Nonce       string    `json:"nonce"`
	RepoURL     string    `json:"repo_url"`
	CommitSHA   string    `json:"commit_sha"`
	PagesURL    string    `json:"pages_url"`
	SubmittedAt time.Time `json:"timestamp"`
}

// Key returns the identity of this submission. Duplicate submissions with the
// same tuple overwrite rather than multiply.
func (s *Submission) Key() string {
	return SubmissionKey(s.Email, s.Task, s.Round, s.Nonce)
}

func SubmissionKey(email, task string, round int, nonce string) string {
	return fmt.Sprintf("%s|%s|%d|%s", email, task, round, nonce)
}
