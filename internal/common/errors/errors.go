// Package errors provides the standardized error taxonomy for the build,
// notify and evaluation pipeline.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeAuthFailed       ErrorCode = "AUTH_FAILED"
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	ErrCodePublishFailed    ErrorCode = "PUBLISH_FAILED"
	ErrCodeNotifyExhausted  ErrorCode = "NOTIFY_EXHAUSTED"
	ErrCodeStoreFailed      ErrorCode = "STORE_FAILED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus maps an error code to the response status the orchestrator
// reports for it. Validation and auth failures happen before any side effect;
// publish failures surface as 500 with the failing stage named.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeAuthFailed:
		return http.StatusForbidden
	case ErrCodePublishFailed, ErrCodeStoreFailed, ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a non-retryable error naming the missing fields.
func NewValidationError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   fmt.Sprintf("Missing fields: [%s]", strings.Join(missing, ", ")),
		Details:   "all required request fields must be present and non-empty",
		Retryable: false,
		Metadata:  map[string]interface{}{"missingFields": missing},
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthError creates a non-retryable secret-mismatch error.
func NewAuthError() *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthFailed,
		Message:   "Invalid secret",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenerationError creates a retryable generation-collaborator error. The
// synthesizer always recovers from it locally via the template fallback; it
// never crosses the synthesizer boundary.
func NewGenerationError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   "Content generation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreError creates a retryable submission-store error.
func NewStoreError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreFailed,
		Message:   "Submission store operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// PublishStage identifies which publish stage failed.
type PublishStage string

const (
	StageCreate PublishStage = "create"
	StagePush   PublishStage = "push"
	StageEnable PublishStage = "enable"
)

// PublishError reports a failed publish with the failing stage and, for push
// failures, which files had already been uploaded. Already-pushed files are
// not rolled back; the repository is left partially populated.
type PublishError struct {
	Stage       PublishStage `json:"stage"`
	PushedFiles []string     `json:"pushedFiles,omitempty"`
	FailedFile  string       `json:"failedFile,omitempty"`
	Err         error        `json:"-"`
	Timestamp   time.Time    `json:"timestamp"`
}

func (e *PublishError) Error() string {
	if e.FailedFile != "" {
		return fmt.Sprintf("publish failed at stage %s (file %s): %v", e.Stage, e.FailedFile, e.Err)
	}
	return fmt.Sprintf("publish failed at stage %s: %v", e.Stage, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// NewPublishError creates a stage-tagged publish error.
func NewPublishError(stage PublishStage, err error) *PublishError {
	return &PublishError{
		Stage:     stage,
		Err:       err,
		Timestamp: time.Now().UTC(),
	}
}

// NewPushError creates a push-stage publish error recording partial progress.
func NewPushError(failedFile string, pushed []string, err error) *PublishError {
	return &PublishError{
		Stage:       StagePush,
		PushedFiles: pushed,
		FailedFile:  failedFile,
		Err:         err,
		Timestamp:   time.Now().UTC(),
	}
}
