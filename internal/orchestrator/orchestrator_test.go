package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/internal/common/httpclient"
	"appforge/internal/common/logger"
	"appforge/internal/githost"
	"appforge/internal/models"
	"appforge/internal/naming"
	"appforge/internal/notify"
	"appforge/internal/publish"
	"appforge/internal/synth"
)

// githubFake is a minimal stand-in for the repository host API. It records
// which endpoints were hit and can be told to fail specific operations.
type githubFake struct {
	mu          sync.Mutex
	createCalls int
	putPaths    []string
	pagesCalls  int
	failCreate  bool
}

func (g *githubFake) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/user/repos":
			g.createCalls++
			if g.failCreate {
				w.WriteHeader(http.StatusUnprocessableEntity)
				fmt.Fprint(w, `{"message":"name already exists"}`)
				return
			}
			var body struct {
				Name string `json:"name"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"name":           body.Name,
				"html_url":       "https://github.com/octocat/" + body.Name,
				"default_branch": "main",
				"owner":          map[string]string{"login": "octocat"},
			})

		case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/contents/"):
			parts := strings.SplitN(r.URL.Path, "/contents/", 2)
			g.putPaths = append(g.putPaths, parts[1])
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"commit": map[string]string{"sha": fmt.Sprintf("sha-%d", len(g.putPaths))},
			})

		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/pages"):
			g.pagesCalls++
			w.WriteHeader(http.StatusCreated)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (g *githubFake) calls() (int, []string, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createCalls, append([]string{}, g.putPaths...), g.pagesCalls
}

type callbackFake struct {
	mu       sync.Mutex
	status   int
	payloads []models.CallbackPayload
}

func (c *callbackFake) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		var p models.CallbackPayload
		json.NewDecoder(r.Body).Decode(&p)
		c.payloads = append(c.payloads, p)
		w.WriteHeader(c.status)
	})
}

func newTestOrchestrator(t *testing.T, hostURL string) (*Orchestrator, *[]time.Duration) {
	t.Helper()
	log := logger.NewTestLogger(t)

	host := githost.NewClient(hostURL, "test-token", 2*time.Second, log)
	namer := naming.NewWithSuffix(func() string { return "a1b2c3" })
	synthesizer := synth.New(nil, log)
	publisher := publish.New(host, "octocat", "main", log)
	notifier := notify.New(httpclient.NewClient(2*time.Second), 6, time.Second, log)

	var waits []time.Duration
	notifier.SetSleep(func(d time.Duration) { waits = append(waits, d) })

	return New([]string{"s3cret"}, namer, synthesizer, publisher, notifier, nil, log), &waits
}

func buildRequest(evaluationURL string) *models.BuildRequest {
	return &models.BuildRequest{
		Email:         "student@example.com",
		Secret:        "s3cret",
		Task:          "Solve Captcha",
		Round:         1,
		Nonce:         "n-1",
		Brief:         "Build a captcha solver page",
		EvaluationURL: evaluationURL,
	}
}

func TestBuild_FullPipeline(t *testing.T) {
	gh := &githubFake{}
	ghSrv := httptest.NewServer(gh.handler())
	defer ghSrv.Close()

	cb := &callbackFake{status: http.StatusOK}
	cbSrv := httptest.NewServer(cb.handler())
	defer cbSrv.Close()

	orch, waits := newTestOrchestrator(t, ghSrv.URL)
	out := orch.Build(context.Background(), buildRequest(cbSrv.URL))

	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, http.StatusOK, out.HTTPStatus)
	assert.NoError(t, out.Err)

	// Repository name carries the slug, email digest and random suffix.
	assert.Regexp(t, regexp.MustCompile(`^https://github\.com/octocat/solve-captcha-[0-9a-f]{8}-a1b2c3$`), out.RepoURL)
	repoName := out.RepoURL[strings.LastIndex(out.RepoURL, "/")+1:]
	assert.Equal(t, "https://octocat.github.io/"+repoName+"/", out.PagesURL)
	assert.NotEmpty(t, out.CommitSHA)

	creates, puts, pages := gh.calls()
	assert.Equal(t, 1, creates)
	assert.Equal(t, []string{"index.html", "README.md", "LICENSE", ".gitignore"}, puts)
	assert.Equal(t, 1, pages)

	require.Len(t, cb.payloads, 1)
	p := cb.payloads[0]
	assert.Equal(t, "student@example.com", p.Email)
	assert.Equal(t, "Solve Captcha", p.Task)
	assert.Equal(t, 1, p.Round)
	assert.Equal(t, "n-1", p.Nonce)
	assert.Equal(t, out.RepoURL, p.RepoURL)
	assert.Equal(t, out.PagesURL, p.PagesURL)
	assert.Empty(t, *waits)
}

func TestBuild_InvalidSecret(t *testing.T) {
	gh := &githubFake{}
	ghSrv := httptest.NewServer(gh.handler())
	defer ghSrv.Close()

	orch, _ := newTestOrchestrator(t, ghSrv.URL)
	req := buildRequest("http://127.0.0.1:0/callback")
	req.Secret = "wrong"

	out := orch.Build(context.Background(), req)

	assert.Equal(t, "error", out.Status)
	assert.Equal(t, http.StatusForbidden, out.HTTPStatus)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "AUTH_FAILED")

	// Authentication failures must leave the host untouched.
	creates, puts, pages := gh.calls()
	assert.Zero(t, creates)
	assert.Empty(t, puts)
	assert.Zero(t, pages)
}

func TestBuild_MissingFields(t *testing.T) {
	orch, _ := newTestOrchestrator(t, "http://127.0.0.1:0")
	req := buildRequest("http://127.0.0.1:0/callback")
	req.Email = ""
	req.Brief = ""

	out := orch.Build(context.Background(), req)

	assert.Equal(t, "error", out.Status)
	assert.Equal(t, http.StatusBadRequest, out.HTTPStatus)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "email")
	assert.Contains(t, out.Err.Error(), "brief")
}

func TestBuild_CreateFailureStopsPipeline(t *testing.T) {
	gh := &githubFake{failCreate: true}
	ghSrv := httptest.NewServer(gh.handler())
	defer ghSrv.Close()

	cb := &callbackFake{status: http.StatusOK}
	cbSrv := httptest.NewServer(cb.handler())
	defer cbSrv.Close()

	orch, _ := newTestOrchestrator(t, ghSrv.URL)
	out := orch.Build(context.Background(), buildRequest(cbSrv.URL))

	assert.Equal(t, "error", out.Status)
	assert.Equal(t, http.StatusInternalServerError, out.HTTPStatus)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "create")

	_, puts, pages := gh.calls()
	assert.Empty(t, puts)
	assert.Zero(t, pages)
	assert.Empty(t, cb.payloads)
}

func TestBuild_CallbackExhaustedIsPartial(t *testing.T) {
	gh := &githubFake{}
	ghSrv := httptest.NewServer(gh.handler())
	defer ghSrv.Close()

	cb := &callbackFake{status: http.StatusInternalServerError}
	cbSrv := httptest.NewServer(cb.handler())
	defer cbSrv.Close()

	orch, waits := newTestOrchestrator(t, ghSrv.URL)
	out := orch.Build(context.Background(), buildRequest(cbSrv.URL))

	assert.Equal(t, "partial", out.Status)
	assert.Equal(t, http.StatusOK, out.HTTPStatus)
	assert.NotEmpty(t, out.RepoURL)
	assert.NotEmpty(t, out.PagesURL)

	assert.Len(t, cb.payloads, 6)
	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}, *waits)
}

func TestRevise_RepushesAndNotifies(t *testing.T) {
	gh := &githubFake{}
	ghSrv := httptest.NewServer(gh.handler())
	defer ghSrv.Close()

	cb := &callbackFake{status: http.StatusOK}
	cbSrv := httptest.NewServer(cb.handler())
	defer cbSrv.Close()

	orch, _ := newTestOrchestrator(t, ghSrv.URL)
	req := &models.ReviseRequest{
		BuildRequest: *buildRequest(cbSrv.URL),
		RepoURL:      "https://github.com/octocat/solve-captcha-deadbeef-a1b2c3",
	}
	req.Round = 2

	out := orch.Revise(context.Background(), req)

	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, req.RepoURL, out.RepoURL)
	assert.Equal(t, "https://octocat.github.io/solve-captcha-deadbeef-a1b2c3/", out.PagesURL)

	// Revision re-pushes content only; no repo creation, no hosting call.
	creates, puts, pages := gh.calls()
	assert.Zero(t, creates)
	assert.Equal(t, []string{"index.html", "README.md"}, puts)
	assert.Zero(t, pages)

	require.Len(t, cb.payloads, 1)
	assert.Equal(t, 2, cb.payloads[0].Round)
}

func TestRevise_BadRepoURL(t *testing.T) {
	orch, _ := newTestOrchestrator(t, "http://127.0.0.1:0")
	req := &models.ReviseRequest{
		BuildRequest: *buildRequest("http://127.0.0.1:0/callback"),
		RepoURL:      "https://github.com/",
	}

	out := orch.Revise(context.Background(), req)
	assert.Equal(t, "error", out.Status)
	assert.Equal(t, http.StatusBadRequest, out.HTTPStatus)
}

func TestMITLicense(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	text := MITLicense("student@example.com", now)

	assert.Contains(t, text, "MIT License")
	assert.Contains(t, text, "Copyright (c) 2026 student")

	assert.Contains(t, MITLicense("@example.com", now), "the author")
}
