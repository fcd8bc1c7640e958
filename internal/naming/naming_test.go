package naming

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerive_Deterministic(t *testing.T) {
	n := NewWithSuffix(func() string { return "abc123" })

	first := n.Derive("Solve Captcha", "alice@example.com")
	second := n.Derive("Solve Captcha", "alice@example.com")

	assert.Equal(t, first, second, "same inputs and suffix must derive the same name")
}

func TestDerive_SuffixConfinesNondeterminism(t *testing.T) {
	a := NewWithSuffix(func() string { return "aaaaaa" }).Derive("Solve Captcha", "alice@example.com")
	b := NewWithSuffix(func() string { return "bbbbbb" }).Derive("Solve Captcha", "alice@example.com")

	assert.NotEqual(t, a, b)
	assert.Equal(t,
		strings.TrimSuffix(a, "aaaaaa"),
		strings.TrimSuffix(b, "bbbbbb"),
		"names must differ only in the suffix")
}

func TestDerive_Format(t *testing.T) {
	tests := []struct {
		name string
		task string
		want string
	}{
		{"spaces become hyphens", "Solve Captcha", "solve-captcha"},
		{"slashes become hyphens", "scrape/parse", "scrape-parse"},
		{"mixed case lowered", "MyApp Demo", "myapp-demo"},
		{"punctuation collapsed", "hello,  world!!", "hello-world"},
	}

	pattern := regexp.MustCompile(`^[a-z0-9-]+-[0-9a-f]{8}-[0-9a-f]{6}$`)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New().Derive(tt.task, "alice@example.com")
			assert.True(t, pattern.MatchString(got), "name %q must match host constraints", got)
			assert.True(t, strings.HasPrefix(got, tt.want+"-"), "name %q must start with %q", got, tt.want)
		})
	}
}

func TestDerive_TruncatesLongTask(t *testing.T) {
	task := strings.Repeat("very long task label ", 20)
	got := New().Derive(task, "alice@example.com")

	assert.LessOrEqual(t, len(got), 100)
	assert.NotContains(t, got, "--", "truncation must not leave a trailing hyphen run")
}

func TestDerive_EmptyTaskFallsBack(t *testing.T) {
	got := NewWithSuffix(func() string { return "abc123" }).Derive("!!!", "alice@example.com")
	assert.True(t, strings.HasPrefix(got, "app-"))
}

func TestDerive_DigestVariesByEmail(t *testing.T) {
	n := NewWithSuffix(func() string { return "abc123" })
	assert.NotEqual(t,
		n.Derive("task", "alice@example.com"),
		n.Derive("task", "bob@example.com"))
}
