package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	commonerrors "appforge/internal/common/errors"
	"appforge/internal/common/httpclient"
	"appforge/internal/models"
)

// ChatClient calls an OpenAI-compatible chat-completions API and parses the
// model output as a JSON object with index_html and readme_md fields.
type ChatClient struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	client      *httpclient.Client
}

func NewChatClient(baseURL, apiKey, model string, maxTokens int, temperature float64, timeout time.Duration) *ChatClient {
	return &ChatClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		client:      httpclient.NewClient(timeout),
	}
}

func (c *ChatClient) GenerateApp(ctx context.Context, brief, task string, attachments []models.Attachment) (*GeneratedApp, error) {
	requestBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": BuildPrompt(brief, task, attachments)},
		},
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
	}

	body, _ := json.Marshal(requestBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, commonerrors.NewGenerationError(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, commonerrors.NewGenerationError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, commonerrors.NewGenerationError(fmt.Errorf("status %d", resp.StatusCode))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, commonerrors.NewGenerationError(fmt.Errorf("decode completion: %w", err))
	}
	if len(completion.Choices) == 0 {
		return nil, commonerrors.NewGenerationError(fmt.Errorf("completion has no choices"))
	}

	return ParseGeneratedApp(completion.Choices[0].Message.Content)
}

// BuildPrompt describes the brief and constraints for the generation
// collaborator. The generated page must be standalone and dependency-light.
func BuildPrompt(brief, task string, attachments []models.Attachment) string {
	var b strings.Builder
	b.WriteString("Generate a minimal standalone HTML single-page app implementing the following brief. ")
	b.WriteString("The page must be self-contained with no external dependencies. ")
	b.WriteString("Return JSON with keys: index_html, readme_md.\n\n")
	fmt.Fprintf(&b, "TASK: %s\n\nBRIEF:\n%s\n", task, brief)
	if len(attachments) > 0 {
		b.WriteString("\nATTACHMENTS:\n")
		for _, a := range attachments {
			fmt.Fprintf(&b, "- %s\n", a.Name)
		}
	}
	return b.String()
}

// ParseGeneratedApp parses a model response expected to be a JSON object with
// the two artifact fields. Models sometimes wrap JSON in a code fence; strip
// it before decoding.
func ParseGeneratedApp(content string) (*GeneratedApp, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var app GeneratedApp
	if err := json.Unmarshal([]byte(content), &app); err != nil {
		return nil, commonerrors.NewGenerationError(fmt.Errorf("response is not a JSON object with index_html/readme_md: %w", err))
	}
	return &app, nil
}
