package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelagiclabs/docvault/ai/mock"
	"github.com/pelagiclabs/docvault/core"
	"github.com/pelagiclabs/docvault/storage/memory"
)

func storedChunk(t *testing.T, repo *memory.DocumentRepository, url, content, source string, embedding []float32) {
	t.Helper()
	require.NoError(t, repo.UpsertChunk(context.Background(), &core.DocumentChunk{
		URL:       url,
		Content:   content,
		Metadata:  map[string]any{"source": source},
		Embedding: embedding,
	}))
}

func TestDocumentBackendSearch(t *testing.T) {
	repo := memory.NewDocumentRepository()
	provider := mock.NewMockProvider(2)
	// Pin the query embedding so similarity ordering is known.
	provider.MockEmbedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	storedChunk(t, repo, "https://example.com/a", "aligned", "example.com", []float32{1, 0})
	storedChunk(t, repo, "https://example.com/b", "orthogonal", "example.com", []float32{0, 1})
	storedChunk(t, repo, "https://other.org/c", "filtered out", "other.org", []float32{1, 0})

	backend, err := NewDocumentBackend(repo, provider)
	require.NoError(t, err)
	assert.Equal(t, "documents", backend.Name())

	t.Run("orders by similarity", func(t *testing.T) {
		results, err := backend.Search(context.Background(), "query", 10, nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "aligned", results[0].Chunk.Content)
		assert.Equal(t, "documents", results[0].Backend)
	})

	t.Run("applies metadata filter", func(t *testing.T) {
		results, err := backend.Search(context.Background(), "query", 10, map[string]string{"source": "example.com"})
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, "example.com", r.Chunk.Metadata["source"])
		}
	})

	t.Run("rejects invalid params", func(t *testing.T) {
		_, err := backend.Search(context.Background(), "", 5, nil)
		assert.ErrorIs(t, err, core.ErrEmptyQuery)

		_, err = backend.Search(context.Background(), "query", 0, nil)
		assert.ErrorIs(t, err, core.ErrInvalidMatchCount)
	})
}

func TestEntityBackendSearch(t *testing.T) {
	repo := memory.NewEntityRepository()
	repo.Add(core.EntityMatch{EntityID: "vector index", Description: "speeds up similarity search", EntityType: "concept", SourcePath: "docs/indexing.md"})
	repo.Add(core.EntityMatch{EntityID: "unrelated", Description: "nothing", EntityType: "concept", SourcePath: "docs/other.md"})

	backend, err := NewEntityBackend(repo)
	require.NoError(t, err)
	assert.Equal(t, "entities", backend.Name())

	results, err := backend.Search(context.Background(), "vector index", 5, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "entities", results[0].Backend)
	assert.Equal(t, "vector index", results[0].Chunk.Metadata["entity_id"])
	assert.Equal(t, "docs/indexing.md", results[0].Chunk.URL)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
}
