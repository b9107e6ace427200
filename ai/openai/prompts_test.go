package openai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildContextualPromptTruncatesDocument(t *testing.T) {
	document := strings.Repeat("x", 100)
	prompt := buildContextualPrompt(document, "chunk text", 10)

	assert.Contains(t, prompt, strings.Repeat("x", 10))
	assert.NotContains(t, prompt, strings.Repeat("x", 11))
	assert.Contains(t, prompt, "<chunk>\nchunk text\n</chunk>")
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter than limit", "abc", 10, "abc"},
		{"exact", "abc", 3, "abc"},
		{"cut", "abcdef", 3, "abc"},
		{"multibyte safe", "héllo", 2, "hé"},
		{"zero", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateRunes(tt.in, tt.n))
		})
	}
}
