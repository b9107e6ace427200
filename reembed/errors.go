package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a retry is configured with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrEmbeddingMismatch is returned when the embedder returns a
	// different number of vectors than texts submitted.
	ErrEmbeddingMismatch = errors.New("embedding count does not match chunk count")
)
