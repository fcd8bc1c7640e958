package models

// Canonical artifact paths.
const (
	ArtifactIndex     = "index.html"
	ArtifactReadme    = "README.md"
	ArtifactLicense   = "LICENSE"
	ArtifactGitignore = ".gitignore"
)

// ArtifactSet maps a relative file path to its text content. A valid set
// always contains at least the entry-point page and the README.
type ArtifactSet map[string]string

func (a ArtifactSet) Has(path string) bool {
	_, ok := a[path]
	return ok
}

// SetDefault stores content under path only if the path is absent.
func (a ArtifactSet) SetDefault(path, content string) {
	if !a.Has(path) {
		a[path] = content
	}
}

// PublishedRepo records the references to a repository created on the host.
// The host owns the repository once created; the core only reports these
// references back to the caller.
type PublishedRepo struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	DefaultBranch string `json:"default_branch"`
	CommitSHA     string `json:"commit_sha"`
	Owner         string `json:"owner"`
	PagesURL      string `json:"pages_url"`
}
