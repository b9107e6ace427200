package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts and always has the same length: entries that could not be
	// embedded are zero vectors of the configured dimension rather than
	// errors, so a single bad input never sinks a whole batch.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the width of the vectors this embedder produces.
	Dimension() int
}

// Contextualizer enriches a chunk of text with context from the document
// it was cut from, improving retrieval for chunks that are ambiguous in
// isolation. Implementations must be thread-safe for concurrent use.
type Contextualizer interface {
	// Contextualize returns the chunk prefixed with generated situating
	// context, and true on success. On any failure it returns the original
	// chunk unchanged and false; callers never need to handle an error.
	Contextualize(ctx context.Context, document, chunk string) (string, bool)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder and
// Contextualizer instances, ensuring they share configuration.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Contextualizer returns the chunk contextualization service.
	Contextualizer() Contextualizer

	// Close releases resources held by the provider and its services.
	Close() error
}
