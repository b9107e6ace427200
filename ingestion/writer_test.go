package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelagiclabs/docvault/ai/mock"
	"github.com/pelagiclabs/docvault/core"
	"github.com/pelagiclabs/docvault/storage/memory"
)

const testURL = "https://example.com/docs/guide"

// paragraphs builds a document that splits into exactly n chunks of
// eighty bytes each under a chunk size of 100.
func paragraphs(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString(strings.Repeat("p", 80))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func newTestWriter(t *testing.T, repo *memory.DocumentRepository, provider *mock.MockProvider, opts ...Option) *Writer {
	t.Helper()
	writer, err := NewWriter(repo, provider, opts...)
	require.NoError(t, err)
	t.Cleanup(writer.Release)
	return writer
}

func TestNewWriterRequiresDependencies(t *testing.T) {
	_, err := NewWriter(nil, mock.NewMockProvider(4))
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = NewWriter(memory.NewDocumentRepository(), nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestIngestStoresChunksInOrder(t *testing.T) {
	repo := memory.NewDocumentRepository()
	provider := mock.NewMockProvider(4)
	writer := newTestWriter(t, repo, provider, WithChunkSize(100))

	summary, err := writer.Ingest(context.Background(), Document{
		URL:      testURL,
		Content:  paragraphs(5),
		Metadata: map[string]any{"source": "example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Documents)
	assert.Equal(t, 5, summary.ChunksStored)
	assert.Equal(t, 0, summary.ChunksFailed)

	chunks, err := repo.ChunksByURL(context.Background(), testURL)
	require.NoError(t, err)
	require.Len(t, chunks, 5)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, "example.com", chunk.Metadata["source"])
		assert.Equal(t, core.HashContent(chunk.Content), chunk.Metadata["content_hash"])
		assert.Len(t, chunk.Embedding, 4)
	}
}

func TestIngestReplacesPreviousChunks(t *testing.T) {
	repo := memory.NewDocumentRepository()
	provider := mock.NewMockProvider(4)
	writer := newTestWriter(t, repo, provider, WithChunkSize(100))
	ctx := context.Background()

	_, err := writer.Ingest(ctx, Document{URL: testURL, Content: paragraphs(5)})
	require.NoError(t, err)

	// Re-ingesting a shorter version must not leave stale chunks behind.
	_, err = writer.Ingest(ctx, Document{URL: testURL, Content: paragraphs(2)})
	require.NoError(t, err)

	chunks, err := repo.ChunksByURL(ctx, testURL)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestIngestBatchesSequentially(t *testing.T) {
	repo := memory.NewDocumentRepository()
	provider := mock.NewMockProvider(4)
	writer := newTestWriter(t, repo, provider, WithChunkSize(100), WithBatchSize(20))

	summary, err := writer.Ingest(context.Background(), Document{URL: testURL, Content: paragraphs(45)})
	require.NoError(t, err)
	assert.Equal(t, 45, summary.ChunksStored)

	batches := provider.MockEmbedder.Batches()
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 20)
	assert.Len(t, batches[1], 20)
	assert.Len(t, batches[2], 5)
}

func TestIngestContextualizationPreservesOrder(t *testing.T) {
	repo := memory.NewDocumentRepository()
	provider := mock.NewMockProvider(4)
	// Earlier chunks finish later, so completion order differs from
	// submission order.
	var calls atomic.Int64
	provider.MockContextualizer.ContextualizeFunc = func(ctx context.Context, document, chunk string) (string, bool) {
		n := calls.Add(1)
		time.Sleep(time.Duration(20-n%20) * time.Millisecond)
		return "situated: " + chunk, true
	}
	writer := newTestWriter(t, repo, provider,
		WithChunkSize(100), WithContextual(true), WithPoolSize(8))

	content := ""
	for i := 0; i < 10; i++ {
		content += fmt.Sprintf("paragraph %02d %s\n\n", i, strings.Repeat("x", 60))
	}
	summary, err := writer.Ingest(context.Background(), Document{URL: testURL, Content: content})
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Contextualized)

	chunks, err := repo.ChunksByURL(context.Background(), testURL)
	require.NoError(t, err)
	require.Len(t, chunks, 10)
	for i, chunk := range chunks {
		assert.True(t, strings.HasPrefix(chunk.Content, fmt.Sprintf("situated: paragraph %02d", i)),
			"chunk %d content %q", i, chunk.Content[:40])
		assert.Equal(t, true, chunk.Metadata["contextual_embedding"])
	}
}

func TestIngestContextualizationFailureKeepsOriginal(t *testing.T) {
	repo := memory.NewDocumentRepository()
	provider := mock.NewMockProvider(4)
	provider.MockContextualizer.ContextualizeFunc = func(ctx context.Context, document, chunk string) (string, bool) {
		return chunk, false
	}
	writer := newTestWriter(t, repo, provider, WithChunkSize(100), WithContextual(true))

	summary, err := writer.Ingest(context.Background(), Document{URL: testURL, Content: paragraphs(3)})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Contextualized)
	assert.Equal(t, 3, summary.ChunksStored)

	chunks, err := repo.ChunksByURL(context.Background(), testURL)
	require.NoError(t, err)
	for _, chunk := range chunks {
		assert.Equal(t, strings.Repeat("p", 80), chunk.Content)
		assert.NotContains(t, chunk.Metadata, "contextual_embedding")
	}
}

func TestIngestFlagsOnlyContextualizedChunks(t *testing.T) {
	repo := memory.NewDocumentRepository()
	provider := mock.NewMockProvider(4)
	// Every other chunk fails contextualization; only the successes may
	// carry the contextual_embedding flag.
	provider.MockContextualizer.ContextualizeFunc = func(ctx context.Context, document, chunk string) (string, bool) {
		if strings.HasPrefix(chunk, "even") {
			return "situated: " + chunk, true
		}
		return chunk, false
	}
	writer := newTestWriter(t, repo, provider, WithChunkSize(100), WithContextual(true), WithPoolSize(1))

	var sb strings.Builder
	for i := 0; i < 4; i++ {
		if i%2 == 0 {
			sb.WriteString("even ")
		} else {
			sb.WriteString("odd ")
		}
		sb.WriteString(strings.Repeat("x", 60))
		sb.WriteString("\n\n")
	}
	summary, err := writer.Ingest(context.Background(), Document{URL: testURL, Content: sb.String()})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Contextualized)

	chunks, err := repo.ChunksByURL(context.Background(), testURL)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	for i, chunk := range chunks {
		if i%2 == 0 {
			assert.Equal(t, true, chunk.Metadata["contextual_embedding"], "chunk %d", i)
		} else {
			assert.NotContains(t, chunk.Metadata, "contextual_embedding", "chunk %d", i)
		}
	}
}

func TestIngestFallsBackToRowWrites(t *testing.T) {
	repo := memory.NewDocumentRepository()
	repo.UpsertChunksHook = func([]*core.DocumentChunk) error {
		return errors.New("batch write refused")
	}
	failIndex := 1
	repo.UpsertChunkHook = func(chunk *core.DocumentChunk) error {
		if chunk.ChunkIndex == failIndex {
			return errors.New("row write refused")
		}
		return nil
	}
	provider := mock.NewMockProvider(4)
	writer := newTestWriter(t, repo, provider, WithChunkSize(100))

	summary, err := writer.Ingest(context.Background(), Document{URL: testURL, Content: paragraphs(3)})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ChunksStored)
	assert.Equal(t, 1, summary.ChunksFailed)
}

func TestIngestDeleteFallsBackPerURL(t *testing.T) {
	repo := memory.NewDocumentRepository()
	repo.DeleteByURLsHook = func([]string) error {
		return errors.New("batched delete refused")
	}
	var deleted []string
	repo.DeleteByURLHook = func(url string) error {
		deleted = append(deleted, url)
		return nil
	}
	provider := mock.NewMockProvider(4)
	writer := newTestWriter(t, repo, provider, WithChunkSize(100))

	_, err := writer.Ingest(context.Background(),
		Document{URL: "https://example.com/a", Content: paragraphs(1)},
		Document{URL: "https://example.com/b", Content: paragraphs(1)},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, deleted)
}

func TestIngestContinuesWhenDeleteFails(t *testing.T) {
	repo := memory.NewDocumentRepository()
	repo.DeleteByURLsHook = func([]string) error {
		return errors.New("batched delete refused")
	}
	repo.DeleteByURLHook = func(string) error {
		return errors.New("row delete refused")
	}
	provider := mock.NewMockProvider(4)
	writer := newTestWriter(t, repo, provider, WithChunkSize(100))

	summary, err := writer.Ingest(context.Background(), Document{URL: testURL, Content: paragraphs(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ChunksStored)

	chunks, err := repo.ChunksByURL(context.Background(), testURL)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestIngestCountsEmbeddingFailures(t *testing.T) {
	repo := memory.NewDocumentRepository()
	provider := mock.NewMockProvider(4)
	provider.MockEmbedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}
	writer := newTestWriter(t, repo, provider, WithChunkSize(100))

	summary, err := writer.Ingest(context.Background(), Document{URL: testURL, Content: paragraphs(3)})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ChunksStored)
	assert.Equal(t, 3, summary.ChunksFailed)
}

func TestIngestRejectsInvalidInput(t *testing.T) {
	repo := memory.NewDocumentRepository()
	provider := mock.NewMockProvider(4)
	writer := newTestWriter(t, repo, provider)

	_, err := writer.Ingest(context.Background())
	assert.ErrorIs(t, err, ErrNoDocuments)

	_, err = writer.Ingest(context.Background(), Document{URL: "ftp://example.com", Content: "x"})
	assert.ErrorIs(t, err, core.ErrInvalidURL)
}

func TestSectionInfoExtractsHeaders(t *testing.T) {
	chunk := "# Title\n\nbody text\n\n## Section\n\nmore words here"
	info := sectionInfo(chunk)
	assert.Equal(t, "# Title; ## Section", info["headers"])
	assert.Equal(t, len(chunk), info["char_count"])
	assert.Equal(t, 9, info["word_count"])
}
