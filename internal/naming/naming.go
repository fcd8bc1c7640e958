// Package naming derives collision-resistant repository names from a task
// label and requester identity. Name generation is pure and never consults
// the host: uniqueness comes from a digest of the requester plus a random
// suffix, not from a check-then-act existence probe.
package naming

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	// GitHub repository names are capped at 100 characters.
	maxNameLength = 100

	digestLength = 8
	suffixLength = 6
)

var invalidRuns = regexp.MustCompile(`[^a-z0-9]+`)

// Namer derives repository names. The random suffix source is injectable so
// tests can pin it.
type Namer struct {
	suffix func() string
}

func New() *Namer {
	return &Namer{suffix: randomSuffix}
}

// NewWithSuffix returns a Namer with a fixed suffix source, for tests.
func NewWithSuffix(suffix func() string) *Namer {
	return &Namer{suffix: suffix}
}

// Derive builds "<task-slug>-<8 hex of sha1(email)>-<6 hex suffix>". The task
// slug is truncated first if the combined length would exceed the host limit.
func (n *Namer) Derive(task, email string) string {
	digest := emailDigest(email)
	suffix := n.suffix()

	slug := slugify(task)
	// slug + "-" + digest + "-" + suffix
	maxSlug := maxNameLength - len(digest) - len(suffix) - 2
	if len(slug) > maxSlug {
		slug = strings.Trim(slug[:maxSlug], "-")
	}
	if slug == "" {
		slug = "app"
	}

	return slug + "-" + digest + "-" + suffix
}

func slugify(task string) string {
	s := strings.ToLower(strings.TrimSpace(task))
	s = invalidRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func emailDigest(email string) string {
	sum := sha1.Sum([]byte(email))
	return hex.EncodeToString(sum[:])[:digestLength]
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:suffixLength]
}
