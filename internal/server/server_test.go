package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/internal/common/config"
	"appforge/internal/common/logger"
	"appforge/internal/models"
	"appforge/internal/orchestrator"
	"appforge/internal/store"
)

type fakePipeline struct {
	buildOut  orchestrator.Outcome
	reviseOut orchestrator.Outcome
	buildReq  *models.BuildRequest
	reviseReq *models.ReviseRequest
}

func (f *fakePipeline) Build(ctx context.Context, req *models.BuildRequest) orchestrator.Outcome {
	f.buildReq = req
	return f.buildOut
}

func (f *fakePipeline) Revise(ctx context.Context, req *models.ReviseRequest) orchestrator.Outcome {
	f.reviseReq = req
	return f.reviseOut
}

func newTestServer(t *testing.T, pipeline Pipeline) (*Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	srv := New(config.ServerConfig{Address: ":0"}, []string{"s3cret"}, pipeline, st, logger.NewTestLogger(t))
	return srv, st
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func validBuildBody() map[string]interface{} {
	return map[string]interface{}{
		"email":          "student@example.com",
		"secret":         "s3cret",
		"task":           "solve-captcha",
		"round":          1,
		"nonce":          "n-1",
		"brief":          "Build a captcha solver",
		"evaluation_url": "https://example.com/callback",
	}
}

func TestHandleBuild_Success(t *testing.T) {
	pipeline := &fakePipeline{buildOut: orchestrator.Outcome{
		Status:     "ok",
		HTTPStatus: http.StatusOK,
		RepoURL:    "https://github.com/octocat/solve-captcha-deadbeef-a1b2c3",
		PagesURL:   "https://octocat.github.io/solve-captcha-deadbeef-a1b2c3/",
		CommitSHA:  "abc123",
	}}
	srv, _ := newTestServer(t, pipeline)

	rec := postJSON(t, srv.Handler(), "/api/build", validBuildBody())
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.BuildResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "abc123", resp.CommitSHA)

	require.NotNil(t, pipeline.buildReq)
	assert.Equal(t, "solve-captcha", pipeline.buildReq.Task)
}

func TestHandleBuild_SchemaRejectsBeforePipeline(t *testing.T) {
	pipeline := &fakePipeline{}
	srv, _ := newTestServer(t, pipeline)

	body := validBuildBody()
	delete(body, "brief")
	body["email"] = ""

	rec := postJSON(t, srv.Handler(), "/api/build", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "brief")
	assert.Contains(t, rec.Body.String(), "email")
	assert.Nil(t, pipeline.buildReq)
}

func TestHandleBuild_MalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t, &fakePipeline{})

	req := httptest.NewRequest(http.MethodPost, "/api/build", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBuild_PipelineStatusPassesThrough(t *testing.T) {
	pipeline := &fakePipeline{buildOut: orchestrator.Outcome{
		Status:     "partial",
		HTTPStatus: http.StatusOK,
		RepoURL:    "https://github.com/octocat/app",
	}}
	srv, _ := newTestServer(t, pipeline)

	rec := postJSON(t, srv.Handler(), "/api/build", validBuildBody())
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.BuildResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "partial", resp.Status)
}

func TestHandleRevise_Success(t *testing.T) {
	pipeline := &fakePipeline{reviseOut: orchestrator.Outcome{
		Status:     "ok",
		HTTPStatus: http.StatusOK,
		RepoURL:    "https://github.com/octocat/app",
	}}
	srv, _ := newTestServer(t, pipeline)

	body := validBuildBody()
	body["repo_url"] = "https://github.com/octocat/app"
	body["round"] = 2

	rec := postJSON(t, srv.Handler(), "/api/revise", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, pipeline.reviseReq)
	assert.Equal(t, 2, pipeline.reviseReq.Round)
	assert.Equal(t, "https://github.com/octocat/app", pipeline.reviseReq.RepoURL)
}

func TestHandleRevise_MissingRepoURL(t *testing.T) {
	pipeline := &fakePipeline{}
	srv, _ := newTestServer(t, pipeline)

	rec := postJSON(t, srv.Handler(), "/api/revise", validBuildBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "repo_url")
	assert.Nil(t, pipeline.reviseReq)
}

func validSubmissionBody() map[string]interface{} {
	return map[string]interface{}{
		"email":      "student@example.com",
		"secret":     "s3cret",
		"task":       "solve-captcha",
		"round":      1,
		"nonce":      "n-1",
		"repo_url":   "https://github.com/octocat/app",
		"commit_sha": "abc123",
		"pages_url":  "https://octocat.github.io/app/",
	}
}

func TestHandleSubmission_StoresAndReturnsKey(t *testing.T) {
	srv, st := newTestServer(t, &fakePipeline{})

	rec := postJSON(t, srv.Handler(), "/api/evaluation", validSubmissionBody())
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])

	key := models.SubmissionKey("student@example.com", "solve-captcha", 1, "n-1")
	assert.Equal(t, key, resp["stored_key"])

	stored, err := st.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "abc123", stored.CommitSHA)
	assert.False(t, stored.SubmittedAt.IsZero())
}

func TestHandleSubmission_InvalidSecret(t *testing.T) {
	srv, st := newTestServer(t, &fakePipeline{})

	body := validSubmissionBody()
	body["secret"] = "wrong"

	rec := postJSON(t, srv.Handler(), "/api/evaluation", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	all, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestHandleSubmission_MissingFields(t *testing.T) {
	srv, _ := newTestServer(t, &fakePipeline{})

	body := validSubmissionBody()
	delete(body, "commit_sha")

	rec := postJSON(t, srv.Handler(), "/api/evaluation", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "commit_sha")
}

func TestHandleListSubmissions(t *testing.T) {
	srv, st := newTestServer(t, &fakePipeline{})

	require.NoError(t, st.Put(context.Background(), &models.Submission{
		Email: "student@example.com", Task: "t", Round: 1, Nonce: "n",
		RepoURL: "https://github.com/octocat/app", CommitSHA: "abc",
		PagesURL: "https://octocat.github.io/app/", SubmittedAt: time.Now().UTC(),
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/evaluation/list", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count       int                  `json:"count"`
		Submissions []*models.Submission `json:"submissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Submissions, 1)
	assert.Equal(t, "abc", resp.Submissions[0].CommitSHA)
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, &fakePipeline{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t, &fakePipeline{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "caller-supplied", rec.Header().Get("X-Request-ID"))
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, &fakePipeline{})

	req := httptest.NewRequest(http.MethodGet, "/api/build", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
