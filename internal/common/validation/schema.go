// Package validation checks inbound request payloads against JSON schemas
// before they are decoded, and exposes struct-level required-field checks for
// the orchestrator's validating state.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"appforge/internal/models"
)

const buildRequestSchema = `{
  "type": "object",
  "required": ["email", "secret", "task", "round", "nonce", "brief", "evaluation_url"],
  "properties": {
    "email":          {"type": "string", "minLength": 1},
    "secret":         {"type": "string", "minLength": 1},
    "task":           {"type": "string", "minLength": 1},
    "round":          {"type": "integer", "minimum": 1},
    "nonce":          {"type": "string", "minLength": 1},
    "brief":          {"type": "string", "minLength": 1},
    "evaluation_url": {"type": "string", "minLength": 1},
    "attachments": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "url":  {"type": "string"}
        }
      }
    }
  }
}`

const reviseRequestSchema = `{
  "type": "object",
  "required": ["email", "secret", "task", "round", "nonce", "brief", "evaluation_url", "repo_url"],
  "properties": {
    "email":          {"type": "string", "minLength": 1},
    "secret":         {"type": "string", "minLength": 1},
    "task":           {"type": "string", "minLength": 1},
    "round":          {"type": "integer", "minimum": 1},
    "nonce":          {"type": "string", "minLength": 1},
    "brief":          {"type": "string", "minLength": 1},
    "evaluation_url": {"type": "string", "minLength": 1},
    "repo_url":       {"type": "string", "minLength": 1}
  }
}`

const submissionSchema = `{
  "type": "object",
  "required": ["email", "secret", "task", "round", "nonce", "repo_url", "commit_sha", "pages_url"],
  "properties": {
    "email":      {"type": "string", "minLength": 1},
    "secret":     {"type": "string", "minLength": 1},
    "task":       {"type": "string", "minLength": 1},
    "round":      {"type": "integer", "minimum": 1},
    "nonce":      {"type": "string", "minLength": 1},
    "repo_url":   {"type": "string", "minLength": 1},
    "commit_sha": {"type": "string", "minLength": 1},
    "pages_url":  {"type": "string", "minLength": 1}
  }
}`

var (
	buildSchema  = gojsonschema.NewStringLoader(buildRequestSchema)
	reviseSchema = gojsonschema.NewStringLoader(reviseRequestSchema)
	submitSchema = gojsonschema.NewStringLoader(submissionSchema)
)

// Result reports schema validation; Missing lists the fields that were absent
// or empty, suitable for the 400 response body.
type Result struct {
	Valid   bool
	Missing []string
	Errors  []string
}

func ValidateBuildPayload(raw []byte) (*Result, error) {
	return validate(raw, buildSchema)
}

func ValidateRevisePayload(raw []byte) (*Result, error) {
	return validate(raw, reviseSchema)
}

func ValidateSubmissionPayload(raw []byte) (*Result, error) {
	return validate(raw, submitSchema)
}

func validate(raw []byte, schema gojsonschema.JSONLoader) (*Result, error) {
	res, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("payload is not valid JSON: %w", err)
	}

	out := &Result{Valid: res.Valid()}
	for _, verr := range res.Errors() {
		out.Errors = append(out.Errors, verr.String())
		switch verr.Type() {
		case "required":
			if prop, ok := verr.Details()["property"].(string); ok {
				out.Missing = append(out.Missing, prop)
			}
		case "string_gte", "number_gte":
			// Present but empty (or round < 1) counts as missing for the
			// caller-facing message.
			out.Missing = append(out.Missing, verr.Field())
		}
	}
	return out, nil
}

// MissingBuildFields implements the orchestrator's validating state for
// callers that invoke the pipeline programmatically with an already-decoded
// request.
func MissingBuildFields(req *models.BuildRequest) []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	check("email", req.Email)
	check("secret", req.Secret)
	check("task", req.Task)
	if req.Round < 1 {
		missing = append(missing, "round")
	}
	check("nonce", req.Nonce)
	check("brief", req.Brief)
	check("evaluation_url", req.EvaluationURL)
	return missing
}

// MissingReviseFields extends the build check with the revise target.
func MissingReviseFields(req *models.ReviseRequest) []string {
	missing := MissingBuildFields(&req.BuildRequest)
	if strings.TrimSpace(req.RepoURL) == "" {
		missing = append(missing, "repo_url")
	}
	return missing
}
