package server

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	commonerrors "appforge/internal/common/errors"
	"appforge/internal/common/validation"
	"appforge/internal/models"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}

	res, err := validation.ValidateBuildPayload(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !res.Valid {
		s.writeValidation(w, res)
		return
	}

	var req models.BuildRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "payload is not valid JSON")
		return
	}

	out := s.pipeline.Build(r.Context(), &req)
	s.writeJSON(w, out.HTTPStatus, out.Response())
}

func (s *Server) handleRevise(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}

	res, err := validation.ValidateRevisePayload(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !res.Valid {
		s.writeValidation(w, res)
		return
	}

	var req models.ReviseRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "payload is not valid JSON")
		return
	}

	out := s.pipeline.Revise(r.Context(), &req)
	s.writeJSON(w, out.HTTPStatus, out.Response())
}

// submissionRequest is the evaluation intake payload: a submission plus the
// shared secret, which is checked but never stored.
type submissionRequest struct {
	models.Submission
	Secret string `json:"secret"`
}

func (s *Server) handleSubmission(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}

	res, err := validation.ValidateSubmissionPayload(raw)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !res.Valid {
		s.writeValidation(w, res)
		return
	}

	var req submissionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "payload is not valid JSON")
		return
	}

	if !s.authenticate(req.Secret) {
		authErr := commonerrors.NewAuthError()
		s.writeError(w, commonerrors.HTTPStatus(authErr.Code), authErr.Message)
		return
	}

	sub := req.Submission
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}

	if err := s.store.Put(r.Context(), &sub); err != nil {
		s.logger.Error("submission store failed", map[string]interface{}{"error": err.Error()})
		s.writeError(w, http.StatusInternalServerError, "could not store submission")
		return
	}

	s.logger.Info("submission stored", map[string]interface{}{
		"task":  sub.Task,
		"round": sub.Round,
	})
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"stored_key": sub.Key(),
	})
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("submission list failed", map[string]interface{}{"error": err.Error()})
		s.writeError(w, http.StatusInternalServerError, "could not list submissions")
		return
	}
	if subs == nil {
		subs = []*models.Submission{}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(subs),
		"submissions": subs,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) authenticate(secret string) bool {
	ok := false
	for _, candidate := range s.secrets {
		if subtle.ConstantTimeCompare([]byte(secret), []byte(candidate)) == 1 {
			ok = true
		}
	}
	return ok
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "could not read request body")
		return nil, false
	}
	return raw, true
}

func (s *Server) writeValidation(w http.ResponseWriter, res *validation.Result) {
	verr := commonerrors.NewValidationError(res.Missing)
	s.writeJSON(w, commonerrors.HTTPStatus(verr.Code), models.BuildResponse{
		Status: "error",
		Error:  verr.Error(),
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, models.BuildResponse{Status: "error", Error: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encoding failed", map[string]interface{}{"error": fmt.Sprintf("%v", err)})
	}
}
