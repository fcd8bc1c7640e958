package models

import "time"

// CheckResult is the outcome of a single evaluation check. A failed fetch or
// an unreachable endpoint is recorded here, never raised.
type CheckResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// EvaluationResult scores one previously published submission.
type EvaluationResult struct {
	Email          string      `json:"email"`
	Task           string      `json:"task"`
	Round          int         `json:"round"`
	Nonce          string      `json:"nonce"`
	CommitSHA      string      `json:"commit_sha"`
	License        CheckResult `json:"license"`
	Readme         CheckResult `json:"readme"`
	Pages          CheckResult `json:"pages"`
	ReadmeFeedback string      `json:"readme_feedback,omitempty"`
	EvaluatedAt    time.Time   `json:"timestamp"`
}
