package synth

import (
	"context"
	"fmt"

	genai "google.golang.org/genai"

	commonerrors "appforge/internal/common/errors"
	"appforge/internal/models"
)

// GeminiClient generates app content through the official genai client,
// asking for application/json so the response parses directly into a
// GeneratedApp.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	// The genai client reads its API key from the environment.
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) GenerateApp(ctx context.Context, brief, task string, attachments []models.Attachment) (*GeneratedApp, error) {
	prompt := BuildPrompt(brief, task, attachments)

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, commonerrors.NewGenerationError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, commonerrors.NewGenerationError(fmt.Errorf("empty generation response"))
	}

	return ParseGeneratedApp(resp.Candidates[0].Content.Parts[0].Text)
}
