package storage

import (
	"context"

	"github.com/pelagiclabs/docvault/core"
)

// DocumentRepository provides operations for persisting and retrieving
// document chunks. Implementations must be thread-safe.
type DocumentRepository interface {
	// UpsertChunks writes a batch of chunks in one round trip.
	// Rows conflicting on (url, chunk_index) are replaced in place:
	// content, metadata, and embedding are overwritten and created_at
	// is refreshed. The whole batch fails or succeeds together.
	UpsertChunks(ctx context.Context, chunks []*core.DocumentChunk) error

	// UpsertChunk writes a single chunk with the same conflict semantics
	// as UpsertChunks. Used as a row-level fallback when a batch fails.
	UpsertChunk(ctx context.Context, chunk *core.DocumentChunk) error

	// DeleteByURLs removes all chunks for the given URLs in one statement.
	DeleteByURLs(ctx context.Context, urls []string) error

	// DeleteByURL removes all chunks for one URL. Used as a per-URL
	// fallback when the batched delete fails.
	DeleteByURL(ctx context.Context, url string) error

	// Search returns up to matchCount chunks closest to the query
	// embedding, ordered by descending similarity. Each result carries a
	// similarity score in [0,1] computed as 1 - cosine distance. A
	// non-nil filter restricts results to chunks whose metadata contains
	// every key/value pair in the filter.
	Search(ctx context.Context, embedding []float32, matchCount int, filter map[string]string) ([]*core.SearchResult, error)

	// ChunksByURL retrieves all chunks stored for a URL, ordered by
	// chunk index.
	ChunksByURL(ctx context.Context, url string) ([]*core.DocumentChunk, error)

	// ListSources returns the distinct metadata "source" values present
	// in the store, sorted ascending.
	ListSources(ctx context.Context) ([]string, error)

	// ListURLs returns the distinct document URLs present in the store,
	// sorted ascending.
	ListURLs(ctx context.Context) ([]string, error)

	// Close releases the storage backend's resources.
	Close() error
}

// EntityRepository provides read-only access to a property-graph entity
// store. This module consumes the graph's rows; it does not own or
// construct the graph query language.
type EntityRepository interface {
	// QueryEntities finds entities whose identifier or description
	// matches the text pattern, up to limit rows, ordered by descending
	// similarity. The similarity score is a text-match heuristic in
	// [0,1], not a vector distance.
	QueryEntities(ctx context.Context, pattern string, limit int) ([]*core.EntityMatch, error)

	// ListCollections returns the distinct source paths (collections)
	// present in the graph, sorted ascending.
	ListCollections(ctx context.Context) ([]string, error)
}
