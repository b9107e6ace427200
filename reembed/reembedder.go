package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pelagiclabs/docvault/ai"
	"github.com/pelagiclabs/docvault/core"
	"github.com/pelagiclabs/docvault/storage"
)

// Config holds configuration for a reembedding run.
type Config struct {
	// BatchSize is the number of chunks embedded per API call.
	BatchSize int

	// MaxRetries is the maximum number of attempts per embedding call.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration

	// Normalize scales regenerated vectors to unit length before storing.
	Normalize bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:  100,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
		Normalize:  true,
	}
}

// Reembedder regenerates embeddings for every stored chunk, walking the
// repository URL by URL.
type Reembedder struct {
	repository storage.DocumentRepository
	embedder   ai.Embedder
	config     *Config
	progress   io.Writer
}

// NewReembedder creates a reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repository storage.DocumentRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Reembedder{
		repository: repository,
		embedder:   embedder,
		config:     config,
		progress:   progress,
	}
}

// Run reembeds every chunk of every stored URL. A failed URL aborts the
// run so a partial job can be retried without losing already-updated
// documents to the failure.
func (r *Reembedder) Run(ctx context.Context) error {
	urls, err := r.repository.ListURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list urls: %w", err)
	}
	if len(urls) == 0 {
		fmt.Fprintln(r.progress, "No stored chunks to reembed")
		return nil
	}

	fmt.Fprintf(r.progress, "Reembedding %d documents (batch size: %d)\n", len(urls), r.config.BatchSize)
	start := time.Now()
	total := 0

	for _, url := range urls {
		chunks, err := r.repository.ChunksByURL(ctx, url)
		if err != nil {
			return fmt.Errorf("failed to load chunks for %s: %w", url, err)
		}
		for batchStart := 0; batchStart < len(chunks); batchStart += r.config.BatchSize {
			batchEnd := batchStart + r.config.BatchSize
			if batchEnd > len(chunks) {
				batchEnd = len(chunks)
			}
			if err := r.processBatch(ctx, chunks[batchStart:batchEnd]); err != nil {
				return fmt.Errorf("failed to reembed %s: %w", url, err)
			}
		}
		total += len(chunks)
		fmt.Fprintf(r.progress, "\rProgress: %d chunks across %s", total, url)
	}

	elapsed := time.Since(start)
	fmt.Fprintf(r.progress, "\nReembedding complete. Processed %d chunks in %v\n",
		total, elapsed.Round(time.Second))
	return nil
}

// processBatch regenerates and stores embeddings for one batch of chunks.
func (r *Reembedder) processBatch(ctx context.Context, chunks []*core.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		embeddings, embedErr = r.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, r.config.MaxRetries, r.config.RetryDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", r.config.MaxRetries, err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(chunks), len(embeddings))
	}

	for i, chunk := range chunks {
		if r.config.Normalize {
			chunk.Embedding = NormalizeVector(embeddings[i])
		} else {
			chunk.Embedding = embeddings[i]
		}
	}
	return r.repository.UpsertChunks(ctx, chunks)
}
