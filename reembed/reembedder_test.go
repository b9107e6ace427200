package reembed

import (
	"context"
	"io"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelagiclabs/docvault/ai/mock"
	"github.com/pelagiclabs/docvault/core"
	"github.com/pelagiclabs/docvault/storage/memory"
)

func TestNormalizeVector(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		normalized := NormalizeVector([]float32{3, 4})
		assert.InDelta(t, 0.6, normalized[0], 1e-6)
		assert.InDelta(t, 0.8, normalized[1], 1e-6)
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		normalized := NormalizeVector([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, normalized)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, NormalizeVector(nil))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []float32{3, 4}
		NormalizeVector(in)
		assert.Equal(t, []float32{3, 4}, in)
	})
}

func TestReembedderRegeneratesAllChunks(t *testing.T) {
	repo := memory.NewDocumentRepository()
	ctx := context.Background()

	// Seed chunks that still carry zero-vector fallbacks.
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.UpsertChunk(ctx, &core.DocumentChunk{
			URL:        "https://example.com/doc",
			ChunkIndex: i,
			Content:    "chunk content",
			Metadata:   map[string]any{"source": "example.com"},
			Embedding:  make([]float32, 4),
		}))
	}

	embedder := mock.NewMockEmbedder(4)
	reembedder := NewReembedder(repo, embedder, &Config{
		BatchSize:  2,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		Normalize:  true,
	}, io.Discard)

	require.NoError(t, reembedder.Run(ctx))

	chunks, err := repo.ChunksByURL(ctx, "https://example.com/doc")
	require.NoError(t, err)
	require.Len(t, chunks, 5)
	for _, chunk := range chunks {
		var norm float64
		for _, v := range chunk.Embedding {
			norm += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-4, "chunk %d should carry a unit vector", chunk.ChunkIndex)
	}
	// 5 chunks at batch size 2 means three embedding calls.
	assert.Equal(t, 3, embedder.CallCount())
}

func TestReembedderWalksEveryURL(t *testing.T) {
	repo := memory.NewDocumentRepository()
	ctx := context.Background()

	// Two documents from the same source tag: the walk keys on URLs, so
	// both must be regenerated.
	for _, url := range []string{"https://example.com/a", "https://example.com/b"} {
		require.NoError(t, repo.UpsertChunk(ctx, &core.DocumentChunk{
			URL:       url,
			Content:   "chunk content",
			Metadata:  map[string]any{"source": "example.com"},
			Embedding: make([]float32, 4),
		}))
	}

	embedder := mock.NewMockEmbedder(4)
	reembedder := NewReembedder(repo, embedder, nil, io.Discard)
	require.NoError(t, reembedder.Run(ctx))
	assert.Equal(t, 2, embedder.CallCount())
}

func TestReembedderEmptyRepository(t *testing.T) {
	reembedder := NewReembedder(memory.NewDocumentRepository(), mock.NewMockEmbedder(4), nil, io.Discard)
	assert.NoError(t, reembedder.Run(context.Background()))
}
