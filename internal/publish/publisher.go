// Package publish drives the repository host through create, push and
// enable-hosting, tracking partial progress so every failure is attributable
// to a specific stage.
package publish

import (
	"context"
	"fmt"
	"sort"

	commonerrors "appforge/internal/common/errors"
	"appforge/internal/common/logger"
	"appforge/internal/common/metrics"
	"appforge/internal/githost"
	"appforge/internal/models"
)

// CommitSHALatest is reported when the host response carried no commit
// identifier. The identifier is informational only; nothing downstream
// depends on its precise value.
const CommitSHALatest = "latest"

type Publisher struct {
	host   githost.Host
	owner  string
	branch string
	logger logger.Logger
}

func New(host githost.Host, owner, branch string, log logger.Logger) *Publisher {
	return &Publisher{
		host:   host,
		owner:  owner,
		branch: branch,
		logger: log.With(map[string]interface{}{"component": "publish"}),
	}
}

// Publish creates the repository, pushes every artifact and requests hosting
// activation, in that order. On failure it returns a *errors.PublishError
// tagged with the failing stage; already-pushed files are not rolled back.
func (p *Publisher) Publish(ctx context.Context, name string, artifacts models.ArtifactSet, description string) (*models.PublishedRepo, error) {
	info, err := p.host.CreateRepo(ctx, name, description)
	if err != nil {
		metrics.PublishFailures.WithLabelValues(string(commonerrors.StageCreate)).Inc()
		return nil, commonerrors.NewPublishError(commonerrors.StageCreate, err)
	}

	owner := info.Owner
	if owner == "" {
		owner = p.owner
	}
	branch := info.DefaultBranch
	if branch == "" {
		branch = p.branch
	}

	commitSHA := CommitSHALatest
	var pushed []string
	for _, path := range pushOrder(artifacts) {
		sha, err := p.host.PutFile(ctx, owner, name, path, artifacts[path], fmt.Sprintf("Add %s", path))
		if err != nil {
			metrics.PublishFailures.WithLabelValues(string(commonerrors.StagePush)).Inc()
			p.logger.Error("artifact push failed", map[string]interface{}{
				"repo":   name,
				"path":   path,
				"pushed": pushed,
			})
			return nil, commonerrors.NewPushError(path, pushed, err)
		}
		pushed = append(pushed, path)
		if sha != "" {
			commitSHA = sha
		}
	}

	if err := p.host.EnablePages(ctx, owner, name, branch, "/"); err != nil {
		metrics.PublishFailures.WithLabelValues(string(commonerrors.StageEnable)).Inc()
		return nil, commonerrors.NewPublishError(commonerrors.StageEnable, err)
	}

	repo := &models.PublishedRepo{
		Name:          name,
		URL:           info.HTMLURL,
		DefaultBranch: branch,
		CommitSHA:     commitSHA,
		Owner:         owner,
		PagesURL:      githost.PagesURL(owner, name),
	}

	p.logger.Info("publish complete", map[string]interface{}{
		"repo":      name,
		"repoUrl":   repo.URL,
		"pagesUrl":  repo.PagesURL,
		"commitSha": repo.CommitSHA,
		"files":     len(pushed),
	})

	return repo, nil
}

// Update re-pushes artifacts into an existing repository with a shared commit
// message. The repository is assumed to exist and have hosting enabled, so
// only the push stage can fail.
func (p *Publisher) Update(ctx context.Context, owner, repo string, artifacts models.ArtifactSet, message string) (string, error) {
	commitSHA := CommitSHALatest
	var pushed []string
	for _, path := range pushOrder(artifacts) {
		sha, err := p.host.PutFile(ctx, owner, repo, path, artifacts[path], message)
		if err != nil {
			metrics.PublishFailures.WithLabelValues(string(commonerrors.StagePush)).Inc()
			return "", commonerrors.NewPushError(path, pushed, err)
		}
		pushed = append(pushed, path)
		if sha != "" {
			commitSHA = sha
		}
	}

	p.logger.Info("update complete", map[string]interface{}{
		"repo":      repo,
		"commitSha": commitSHA,
		"files":     len(pushed),
	})
	return commitSHA, nil
}

// pushOrder returns artifact paths in a stable, deterministic order: the
// entry point and README first (their absence is most damaging to the hosted
// page), the license and ignore-file last, anything else alphabetical in
// between.
func pushOrder(artifacts models.ArtifactSet) []string {
	head := []string{models.ArtifactIndex, models.ArtifactReadme}
	tail := []string{models.ArtifactLicense, models.ArtifactGitignore}

	fixed := map[string]bool{}
	for _, p := range append(append([]string{}, head...), tail...) {
		fixed[p] = true
	}

	var middle []string
	for path := range artifacts {
		if !fixed[path] {
			middle = append(middle, path)
		}
	}
	sort.Strings(middle)

	var order []string
	for _, p := range head {
		if artifacts.Has(p) {
			order = append(order, p)
		}
	}
	order = append(order, middle...)
	for _, p := range tail {
		if artifacts.Has(p) {
			order = append(order, p)
		}
	}
	return order
}
