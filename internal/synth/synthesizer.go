// Package synth produces the artifact set for a build: an entry-point page
// and a README, either from a generation collaborator or from deterministic
// templates. It never fails past its boundary: callers always receive a
// complete, valid artifact set.
package synth

import (
	"context"
	"strings"

	"appforge/internal/common/logger"
	"appforge/internal/models"
)

// GeneratedApp is the structured output expected from a generation
// collaborator.
type GeneratedApp struct {
	IndexHTML string `json:"index_html"`
	ReadmeMD  string `json:"readme_md"`
}

// Generator is the optional content-generation collaborator. Implementations
// send the brief and constraints to a chat-completion-style API and parse the
// response into a GeneratedApp.
type Generator interface {
	GenerateApp(ctx context.Context, brief, task string, attachments []models.Attachment) (*GeneratedApp, error)
}

type Synthesizer struct {
	gen    Generator
	logger logger.Logger
}

// New builds a Synthesizer. gen may be nil, in which case only the
// deterministic templates are used.
func New(gen Generator, log logger.Logger) *Synthesizer {
	return &Synthesizer{
		gen:    gen,
		logger: log.With(map[string]interface{}{"component": "synth"}),
	}
}

// Synthesize returns an artifact set with the entry-point page and README
// populated. Generation failures select the fallback branch; they are logged
// and never propagated.
func (s *Synthesizer) Synthesize(ctx context.Context, brief, task string, attachments []models.Attachment) models.ArtifactSet {
	if s.gen == nil {
		return s.fallback(brief, task)
	}

	app, err := s.gen.GenerateApp(ctx, brief, task, attachments)
	if err != nil {
		s.logger.Warn("content generation failed, using template fallback", map[string]interface{}{
			"task":  task,
			"error": err.Error(),
		})
		return s.fallback(brief, task)
	}

	artifacts := s.fallback(brief, task)
	if strings.TrimSpace(app.IndexHTML) != "" {
		artifacts[models.ArtifactIndex] = app.IndexHTML
	}
	if strings.TrimSpace(app.ReadmeMD) != "" {
		artifacts[models.ArtifactReadme] = app.ReadmeMD
	}
	return artifacts
}

func (s *Synthesizer) fallback(brief, task string) models.ArtifactSet {
	return models.ArtifactSet{
		models.ArtifactIndex:  DefaultIndexHTML(brief, task),
		models.ArtifactReadme: DefaultReadme(brief, task),
	}
}
