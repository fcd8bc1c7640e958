package evaluate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"appforge/internal/common/httpclient"
)

// ChatFeedbacker asks an OpenAI-compatible chat-completions API for short
// qualitative README feedback.
type ChatFeedbacker struct {
	baseURL string
	apiKey  string
	model   string
	client  *httpclient.Client
}

func NewChatFeedbacker(baseURL, apiKey, model string, timeout time.Duration) *ChatFeedbacker {
	return &ChatFeedbacker{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  httpclient.NewClient(timeout),
	}
}

func (c *ChatFeedbacker) ReviewReadme(ctx context.Context, readme string) (string, error) {
	prompt := "Review the following project README in two or three sentences. " +
		"Comment on clarity and completeness only.\n\n" + readme

	requestBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	body, _ := json.Marshal(requestBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("feedback request returned %d", resp.StatusCode)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode feedback completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("feedback completion has no choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
