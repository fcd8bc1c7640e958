package models

// Attachment is an opaque reference supplied alongside a build request.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// BuildRequest is the inbound task request. All required fields must be
// present and non-empty before any side effect runs; (Email, Task, Round,
// Nonce) together identify a logically distinct build attempt.
type BuildRequest struct {
	Email         string       `json:"email"`
	Secret        string       `json:"secret"`
	Task          string       `json:"task"`
	Round         int          `json:"round"`
	Nonce         string       `json:"nonce"`
	Brief         string       `json:"brief"`
	EvaluationURL string       `json:"evaluation_url"`
	Attachments   []Attachment `json:"attachments,omitempty"`
}

// ReviseRequest carries the same fields plus the repository to revise.
type ReviseRequest struct {
	BuildRequest
	RepoURL string `json:"repo_url"`
}

// CallbackPayload is posted to the caller's evaluation URL once the artifact
// has been published. Task, Round and Nonce are echoed for correlation.
type CallbackPayload struct {
	Email     string `json:"email"`
	Task      string `json:"task"`
	Round     int    `json:"round"`
	Nonce     string `json:"nonce"`
	RepoURL   string `json:"repo_url"`
	PagesURL  string `json:"pages_url"`
	CommitSHA string `json:"commit_sha"`
}

// BuildResponse is the JSON body returned to the caller.
type BuildResponse struct {
	Status    string `json:"status"` // ok | partial | error
	RepoURL   string `json:"repo_url,omitempty"`
	PagesURL  string `json:"pages_url,omitempty"`
	CommitSHA string `json:"commit_sha,omitempty"`
	Error     string `json:"error,omitempty"`
}
