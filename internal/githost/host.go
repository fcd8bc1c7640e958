// Package githost drives the external repository host. The Host interface is
// the single capability boundary the publisher and evaluator depend on; the
// GitHub REST client below is its production implementation.
package githost

import "context"

// RepoInfo is the host's view of a created repository.
type RepoInfo struct {
	Name          string
	HTMLURL       string
	DefaultBranch string
	Owner         string
}

// Host is the repository-host capability consumed by the publisher and the
// evaluator. Any HTTP client against a compatible API can implement it.
type Host interface {
	// CreateRepo requests a new public repository. Auto-initialization is
	// disabled: the caller supplies all initial content itself, avoiding a
	// default-branch race between host-side init and explicit file pushes.
	CreateRepo(ctx context.Context, name, description string) (*RepoInfo, error)

	// PutFile uploads one file as an independent remote transaction and
	// returns the resulting commit SHA, or "" if the host response lacks one.
	PutFile(ctx context.Context, owner, repo, path, content, message string) (string, error)

	// EnablePages requests hosting activation for branch at path. A success
	// response does not guarantee the page is reachable yet.
	EnablePages(ctx context.Context, owner, repo, branch, path string) error

	// GetFileContent fetches a file's decoded text content from a repository.
	GetFileContent(ctx context.Context, owner, repo, path string) (string, error)
}
