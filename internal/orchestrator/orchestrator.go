// Package orchestrator runs the build pipeline: validate, authenticate,
// synthesize, publish, notify. Each stage either completes or maps the
// failure to a caller-facing status.
package orchestrator

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	commonerrors "appforge/internal/common/errors"
	"appforge/internal/common/logger"
	"appforge/internal/common/metrics"
	"appforge/internal/common/observability"
	"appforge/internal/common/validation"
	"appforge/internal/githost"
	"appforge/internal/models"
	"appforge/internal/naming"
	"appforge/internal/notify"
	"appforge/internal/publish"
	"appforge/internal/synth"
)

// Outcome is the terminal result of one pipeline run. Status is one of
// "ok", "partial" (published but callback exhausted) or "error".
type Outcome struct {
	Status     string
	HTTPStatus int
	RepoURL    string
	PagesURL   string
	CommitSHA  string
	Err        error
}

// Response converts the outcome into the caller-facing body.
func (o Outcome) Response() models.BuildResponse {
	resp := models.BuildResponse{
		Status:    o.Status,
		RepoURL:   o.RepoURL,
		PagesURL:  o.PagesURL,
		CommitSHA: o.CommitSHA,
	}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	return resp
}

type Orchestrator struct {
	secrets     []string
	namer       *naming.Namer
	synthesizer *synth.Synthesizer
	publisher   *publish.Publisher
	notifier    *notify.Notifier
	obs         *observability.Observability
	now         func() time.Time
	logger      logger.Logger
}

// New wires the pipeline stages together. obs may be nil.
func New(secrets []string, namer *naming.Namer, synthesizer *synth.Synthesizer, publisher *publish.Publisher, notifier *notify.Notifier, obs *observability.Observability, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		secrets:     secrets,
		namer:       namer,
		synthesizer: synthesizer,
		publisher:   publisher,
		notifier:    notifier,
		obs:         obs,
		now:         time.Now,
		logger:      log.With(map[string]interface{}{"component": "orchestrator"}),
	}
}

// Build runs the full pipeline for a fresh request. Validation and
// authentication happen before any side effect; a callback that exhausts all
// attempts still reports the published artifact with status "partial".
func (o *Orchestrator) Build(ctx context.Context, req *models.BuildRequest) Outcome {
	start := o.now()

	if missing := validation.MissingBuildFields(req); len(missing) > 0 {
		return o.reject(commonerrors.NewValidationError(missing), start)
	}
	if !o.authenticate(req.Secret) {
		return o.reject(commonerrors.NewAuthError(), start)
	}

	name := o.namer.Derive(req.Task, req.Email)
	o.logger.Info("build started", map[string]interface{}{
		"task":  req.Task,
		"round": req.Round,
		"repo":  name,
	})

	artifacts := o.synthesizer.Synthesize(ctx, req.Brief, req.Task, req.Attachments)
	artifacts.SetDefault(models.ArtifactLicense, MITLicense(req.Email, o.now()))
	artifacts.SetDefault(models.ArtifactGitignore, defaultGitignore)

	repo, err := o.publisher.Publish(ctx, name, artifacts, fmt.Sprintf("Generated app for task %s", req.Task))
	if err != nil {
		return o.fail(err, start)
	}

	return o.deliver(ctx, req, repo.URL, repo.PagesURL, repo.CommitSHA, start)
}

// Revise regenerates content for an existing repository and re-pushes the
// entry point and README, then re-delivers the callback.
func (o *Orchestrator) Revise(ctx context.Context, req *models.ReviseRequest) Outcome {
	start := o.now()

	if missing := validation.MissingReviseFields(req); len(missing) > 0 {
		return o.reject(commonerrors.NewValidationError(missing), start)
	}
	if !o.authenticate(req.Secret) {
		return o.reject(commonerrors.NewAuthError(), start)
	}

	owner, repo, err := githost.ParseRepoURL(req.RepoURL)
	if err != nil {
		return o.reject(commonerrors.NewValidationError([]string{"repo_url"}), start)
	}

	o.logger.Info("revision started", map[string]interface{}{
		"task":  req.Task,
		"round": req.Round,
		"repo":  repo,
	})

	artifacts := o.synthesizer.Synthesize(ctx, req.Brief, req.Task, req.Attachments)
	message := fmt.Sprintf("Round %d revision for %s", req.Round, req.Task)

	commitSHA, err := o.publisher.Update(ctx, owner, repo, artifacts, message)
	if err != nil {
		return o.fail(err, start)
	}

	pagesURL := githost.PagesURL(owner, repo)
	return o.deliver(ctx, &req.BuildRequest, req.RepoURL, pagesURL, commitSHA, start)
}

func (o *Orchestrator) deliver(ctx context.Context, req *models.BuildRequest, repoURL, pagesURL, commitSHA string, start time.Time) Outcome {
	payload := &models.CallbackPayload{
		Email:     req.Email,
		Task:      req.Task,
		Round:     req.Round,
		Nonce:     req.Nonce,
		RepoURL:   repoURL,
		PagesURL:  pagesURL,
		CommitSHA: commitSHA,
	}

	res := o.notifier.Notify(ctx, req.EvaluationURL, payload)

	status := "ok"
	if res.Status == notify.StatusExhausted {
		status = "partial"
		o.logger.Warn("callback exhausted, reporting partial", map[string]interface{}{
			"task":     req.Task,
			"attempts": res.Attempts,
		})
	}
	o.record(status, start)

	return Outcome{
		Status:     status,
		HTTPStatus: http.StatusOK,
		RepoURL:    repoURL,
		PagesURL:   pagesURL,
		CommitSHA:  commitSHA,
	}
}

func (o *Orchestrator) authenticate(secret string) bool {
	ok := false
	for _, s := range o.secrets {
		if subtle.ConstantTimeCompare([]byte(secret), []byte(s)) == 1 {
			ok = true
		}
	}
	return ok
}

func (o *Orchestrator) reject(err *commonerrors.StandardError, start time.Time) Outcome {
	o.record("error", start)
	return Outcome{
		Status:     "error",
		HTTPStatus: commonerrors.HTTPStatus(err.Code),
		Err:        err,
	}
}

func (o *Orchestrator) fail(err error, start time.Time) Outcome {
	o.record("error", start)
	o.logger.Error("pipeline failed", map[string]interface{}{"error": err.Error()})
	return Outcome{
		Status:     "error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func (o *Orchestrator) record(status string, start time.Time) {
	elapsed := o.now().Sub(start)
	metrics.BuildsTotal.WithLabelValues(status).Inc()
	metrics.BuildDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	if o.obs != nil {
		ctx := context.Background()
		o.obs.RecordBuild(ctx, status)
		o.obs.RecordBuildDuration(ctx, elapsed, status)
	}
}
