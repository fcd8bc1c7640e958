// Package evaluate re-fetches published artifacts from the repository host
// and scores them. Checks never abort each other: a failed fetch becomes a
// failed check result, and the remaining checks still run.
package evaluate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"appforge/internal/common/httpclient"
	"appforge/internal/common/logger"
	"appforge/internal/common/metrics"
	"appforge/internal/githost"
	"appforge/internal/models"
)

// Feedbacker optionally produces qualitative feedback on a README. Feedback
// is advisory; errors from it are recorded in the result, not propagated.
type Feedbacker interface {
	ReviewReadme(ctx context.Context, readme string) (string, error)
}

type Evaluator struct {
	host      githost.Host
	liveness  *httpclient.Client
	feedback  Feedbacker
	readmeMin int
	now       func() time.Time
	logger    logger.Logger
}

// New builds an evaluator. feedback may be nil. readmeMin falls back to 20
// characters when non-positive.
func New(host githost.Host, liveness *httpclient.Client, feedback Feedbacker, readmeMin int, log logger.Logger) *Evaluator {
	if readmeMin <= 0 {
		readmeMin = 20
	}
	return &Evaluator{
		host:      host,
		liveness:  liveness,
		feedback:  feedback,
		readmeMin: readmeMin,
		now:       time.Now,
		logger:    log.With(map[string]interface{}{"component": "evaluate"}),
	}
}

// Evaluate runs the license, README and liveness checks against one
// submission and returns the scored result.
func (e *Evaluator) Evaluate(ctx context.Context, sub *models.Submission) *models.EvaluationResult {
	result := &models.EvaluationResult{
		Email:       sub.Email,
		Task:        sub.Task,
		Round:       sub.Round,
		Nonce:       sub.Nonce,
		CommitSHA:   sub.CommitSHA,
		EvaluatedAt: e.now().UTC(),
	}

	owner, repo, err := githost.ParseRepoURL(sub.RepoURL)
	if err != nil {
		msg := fmt.Sprintf("unparseable repository URL: %v", err)
		result.License = models.CheckResult{Message: msg}
		result.Readme = models.CheckResult{Message: msg}
		result.Pages = e.checkPages(ctx, sub.PagesURL)
		e.record(result)
		return result
	}

	result.License = e.checkLicense(ctx, owner, repo)
	readme, readmeCheck := e.checkReadme(ctx, owner, repo)
	result.Readme = readmeCheck
	result.Pages = e.checkPages(ctx, sub.PagesURL)

	if e.feedback != nil && readmeCheck.OK {
		feedback, err := e.feedback.ReviewReadme(ctx, readme)
		if err != nil {
			result.ReadmeFeedback = fmt.Sprintf("feedback unavailable: %v", err)
		} else {
			result.ReadmeFeedback = feedback
		}
	}

	e.record(result)
	return result
}

func (e *Evaluator) checkLicense(ctx context.Context, owner, repo string) models.CheckResult {
	content, err := e.host.GetFileContent(ctx, owner, repo, models.ArtifactLicense)
	if err != nil {
		return models.CheckResult{Message: "LICENSE not found"}
	}
	if !strings.Contains(content, "MIT") {
		return models.CheckResult{Message: "LICENSE exists but does not mention MIT"}
	}
	return models.CheckResult{OK: true, Message: "MIT license found"}
}

func (e *Evaluator) checkReadme(ctx context.Context, owner, repo string) (string, models.CheckResult) {
	content, err := e.host.GetFileContent(ctx, owner, repo, models.ArtifactReadme)
	if err != nil {
		return "", models.CheckResult{Message: "README.md not found"}
	}
	trimmed := strings.TrimSpace(content)
	if len(trimmed) <= e.readmeMin {
		return content, models.CheckResult{
			Message: fmt.Sprintf("README too short: %d characters, need more than %d", len(trimmed), e.readmeMin),
		}
	}
	return content, models.CheckResult{OK: true, Message: "README has substantive content"}
}

// checkPages performs a single GET against the hosted page. Hosting is
// eventually consistent, so a failure here is a score, not an error, and
// there is no retry.
func (e *Evaluator) checkPages(ctx context.Context, pagesURL string) models.CheckResult {
	if strings.TrimSpace(pagesURL) == "" {
		return models.CheckResult{Message: "no hosted page URL recorded"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pagesURL, nil)
	if err != nil {
		return models.CheckResult{Message: fmt.Sprintf("bad hosted page URL: %v", err)}
	}

	resp, err := e.liveness.Do(req)
	if err != nil {
		return models.CheckResult{Message: fmt.Sprintf("hosted page unreachable: %v", err)}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.CheckResult{Message: fmt.Sprintf("hosted page returned %d", resp.StatusCode)}
	}
	return models.CheckResult{OK: true, Message: "hosted page is live"}
}

func (e *Evaluator) record(result *models.EvaluationResult) {
	for check, res := range map[string]models.CheckResult{
		"license": result.License,
		"readme":  result.Readme,
		"pages":   result.Pages,
	} {
		outcome := "fail"
		if res.OK {
			outcome = "pass"
		}
		metrics.EvaluationChecks.WithLabelValues(check, outcome).Inc()
	}

	e.logger.Info("submission evaluated", map[string]interface{}{
		"task":    result.Task,
		"round":   result.Round,
		"license": result.License.OK,
		"readme":  result.Readme.OK,
		"pages":   result.Pages.OK,
	})
}
