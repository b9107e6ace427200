package openai

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/pelagiclabs/docvault/ai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
//
// Transport and API failures are degraded to zero vectors of the configured
// dimension rather than surfaced as errors, so ingestion keeps its
// positional bookkeeping even when the embedding service misbehaves.
type Embedder struct {
	embedder  embeddings.Embedder
	dimension int
	logger    *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.APIKey),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder:  embedder,
		dimension: config.EmbeddingDimension,
		logger:    slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// Dimension returns the configured embedding vector width.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// EmbedText generates a vector embedding for a single text string.
// On failure it returns a zero vector and a nil error.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return make([]float32, e.dimension), nil
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a
// batch. The result always has one vector per input, in input order;
// failed batches yield zero vectors instead of an error.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	e.logger.Debug("generating embeddings", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		e.logger.Error("embedding batch failed, falling back to zero vectors",
			"count", len(texts),
			"err", err)
		fallback := make([][]float32, len(texts))
		for i := range fallback {
			fallback[i] = make([]float32, e.dimension)
		}
		return fallback, nil
	}

	// Individual empty results also degrade to zero vectors.
	for i, v := range vectors {
		if len(v) == 0 {
			e.logger.Warn("empty embedding in batch, using zero vector", "index", i)
			vectors[i] = make([]float32, e.dimension)
		}
	}
	return vectors, nil
}
