package githost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"appforge/internal/common/httpclient"
	"appforge/internal/common/logger"
)

// Client talks to the GitHub REST API.
type Client struct {
	baseURL string
	token   string
	client  *httpclient.Client
	logger  logger.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  httpclient.NewClient(timeout),
		logger:  log.With(map[string]interface{}{"component": "githost"}),
	}
}

func (c *Client) CreateRepo(ctx context.Context, name, description string) (*RepoInfo, error) {
	body := map[string]interface{}{
		"name":        name,
		"description": description,
		"private":     false,
		"auto_init":   false,
	}

	resp, err := c.do(ctx, http.MethodPost, c.baseURL+"/user/repos", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError("repo creation", resp)
	}

	var info struct {
		Name          string `json:"name"`
		HTMLURL       string `json:"html_url"`
		DefaultBranch string `json:"default_branch"`
		Owner         struct {
			Login string `json:"login"`
		} `json:"owner"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode repo creation response: %w", err)
	}

	branch := info.DefaultBranch
	if branch == "" {
		branch = "main"
	}

	return &RepoInfo{
		Name:          info.Name,
		HTMLURL:       info.HTMLURL,
		DefaultBranch: branch,
		Owner:         info.Owner.Login,
	}, nil
}

func (c *Client) PutFile(ctx context.Context, owner, repo, path, content, message string) (string, error) {
	body := map[string]interface{}{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, owner, repo, path)
	resp, err := c.do(ctx, http.MethodPut, endpoint, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", apiError(fmt.Sprintf("push %s", path), resp)
	}

	var result struct {
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// The push landed; a missing SHA is informational only.
		c.logger.Warn("could not decode commit sha from push response", map[string]interface{}{
			"path": path,
		})
		return "", nil
	}

	return result.Commit.SHA, nil
}

func (c *Client) EnablePages(ctx context.Context, owner, repo, branch, path string) error {
	body := map[string]interface{}{
		"source": map[string]string{
			"branch": branch,
			"path":   path,
		},
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/pages", c.baseURL, owner, repo)
	resp, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		// Pages already enabled for this repository.
		return nil
	default:
		return apiError("pages activation", resp)
	}
}

func (c *Client) GetFileContent(ctx context.Context, owner, repo, path string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, owner, repo, path)
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(fmt.Sprintf("fetch %s", path), resp)
	}

	var result struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode contents response: %w", err)
	}

	if result.Encoding != "base64" {
		return result.Content, nil
	}

	// GitHub wraps base64 payloads in newlines.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(result.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode %s content: %w", path, err)
	}
	return string(decoded), nil
}

// PagesURL derives the hosting endpoint from owner and repository name. The
// endpoint is deterministic; its reachability is eventually consistent with
// publish.
func PagesURL(owner, repo string) string {
	return fmt.Sprintf("https://%s.github.io/%s/", owner, repo)
}

// ParseRepoURL extracts owner and repository name from a repository page URL
// such as https://github.com/octocat/my-app.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(repoURL), "/")
	trimmed = strings.TrimPrefix(trimmed, "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")

	parts := strings.Split(trimmed, "/")
	if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("repository URL %q has no owner/name path", repoURL)
	}
	return parts[1], parts[2], nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.client.Do(req)
}

func apiError(operation string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%s failed: status %d: %s", operation, resp.StatusCode, strings.TrimSpace(string(data)))
}
