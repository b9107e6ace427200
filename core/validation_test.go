package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateChunk(t *testing.T) {
	valid := func() *DocumentChunk {
		return &DocumentChunk{
			URL:        "https://example.com/docs/intro",
			ChunkIndex: 0,
			Content:    "some chunk content",
		}
	}

	t.Run("valid chunk", func(t *testing.T) {
		require.NoError(t, ValidateChunk(valid()))
	})

	t.Run("nil chunk", func(t *testing.T) {
		err := ValidateChunk(nil)
		assert.ErrorIs(t, err, ErrInvalidChunk)
	})

	t.Run("empty content", func(t *testing.T) {
		chunk := valid()
		chunk.Content = ""
		err := ValidateChunk(chunk)
		assert.ErrorIs(t, err, ErrInvalidChunk)
		assert.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("negative index", func(t *testing.T) {
		chunk := valid()
		chunk.ChunkIndex = -1
		assert.ErrorIs(t, ValidateChunk(chunk), ErrNegativeChunkIndex)
	})

	t.Run("bad url", func(t *testing.T) {
		chunk := valid()
		chunk.URL = "ftp://example.com/file"
		assert.ErrorIs(t, ValidateChunk(chunk), ErrInvalidURL)
	})
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https url", "https://example.com/page", false},
		{"http url", "http://example.com", false},
		{"empty", "", true},
		{"no scheme", "example.com/page", true},
		{"wrong scheme", "file:///etc/passwd", true},
		{"missing host", "https://", true},
		{"too long", "https://example.com/" + strings.Repeat("a", MaxURLLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateChunkSize(t *testing.T) {
	assert.NoError(t, ValidateChunkSize(MinChunkSize))
	assert.NoError(t, ValidateChunkSize(DefaultChunkSize))
	assert.NoError(t, ValidateChunkSize(MaxChunkSize))
	assert.ErrorIs(t, ValidateChunkSize(MinChunkSize-1), ErrInvalidChunkSize)
	assert.ErrorIs(t, ValidateChunkSize(MaxChunkSize+1), ErrInvalidChunkSize)
	assert.ErrorIs(t, ValidateChunkSize(0), ErrInvalidChunkSize)
}

func TestValidateSearchParams(t *testing.T) {
	assert.NoError(t, ValidateSearchParams("how to configure", DefaultMatchCount))
	assert.ErrorIs(t, ValidateSearchParams("", 5), ErrEmptyQuery)
	assert.ErrorIs(t, ValidateSearchParams("q", 0), ErrInvalidMatchCount)
	assert.ErrorIs(t, ValidateSearchParams("q", MaxMatchCount+1), ErrInvalidMatchCount)
}
