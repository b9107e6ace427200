// Package memory provides in-memory implementations of the storage
// interfaces. They carry real cosine-similarity ranking and metadata
// filtering, making them suitable for tests and local experiments that
// should not depend on a running PostgreSQL instance.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pelagiclabs/docvault/core"
)

// DocumentRepository is an in-memory storage.DocumentRepository.
//
// The exported hook fields allow tests to inject failures for specific
// operations; a nil hook means the operation always succeeds.
type DocumentRepository struct {
	mu     sync.RWMutex
	chunks map[string]map[int]*core.DocumentChunk // url -> index -> chunk

	// UpsertChunksHook, when set, runs before a batch write and can fail it.
	UpsertChunksHook func(chunks []*core.DocumentChunk) error
	// UpsertChunkHook, when set, runs before a single-row write and can fail it.
	UpsertChunkHook func(chunk *core.DocumentChunk) error
	// DeleteByURLsHook, when set, runs before a batched delete and can fail it.
	DeleteByURLsHook func(urls []string) error
	// DeleteByURLHook, when set, runs before a per-URL delete and can fail it.
	DeleteByURLHook func(url string) error
}

// NewDocumentRepository creates an empty in-memory document repository.
//
// Returns the concrete type so tests can reach the failure-injection hooks
// and inspection helpers.
func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{
		chunks: make(map[string]map[int]*core.DocumentChunk),
	}
}

func (r *DocumentRepository) UpsertChunks(ctx context.Context, chunks []*core.DocumentChunk) error {
	if r.UpsertChunksHook != nil {
		if err := r.UpsertChunksHook(chunks); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
		r.store(chunk)
	}
	return nil
}

func (r *DocumentRepository) UpsertChunk(ctx context.Context, chunk *core.DocumentChunk) error {
	if r.UpsertChunkHook != nil {
		if err := r.UpsertChunkHook(chunk); err != nil {
			return err
		}
	}
	if err := core.ValidateChunk(chunk); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store(chunk)
	return nil
}

// store must be called with the write lock held.
func (r *DocumentRepository) store(chunk *core.DocumentChunk) {
	byIndex, ok := r.chunks[chunk.URL]
	if !ok {
		byIndex = make(map[int]*core.DocumentChunk)
		r.chunks[chunk.URL] = byIndex
	}
	stored := *chunk
	stored.CreatedAt = time.Now().UTC()
	byIndex[chunk.ChunkIndex] = &stored
}

func (r *DocumentRepository) DeleteByURLs(ctx context.Context, urls []string) error {
	if r.DeleteByURLsHook != nil {
		if err := r.DeleteByURLsHook(urls); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, url := range urls {
		delete(r.chunks, url)
	}
	return nil
}

func (r *DocumentRepository) DeleteByURL(ctx context.Context, url string) error {
	if r.DeleteByURLHook != nil {
		if err := r.DeleteByURLHook(url); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chunks, url)
	return nil
}

func (r *DocumentRepository) Search(ctx context.Context, embedding []float32, matchCount int, filter map[string]string) ([]*core.SearchResult, error) {
	if matchCount < 1 {
		return nil, fmt.Errorf("match count must be positive")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*core.SearchResult
	for _, byIndex := range r.chunks {
		for _, chunk := range byIndex {
			if len(chunk.Embedding) == 0 {
				continue
			}
			if !metadataContains(chunk.Metadata, filter) {
				continue
			}
			copied := *chunk
			results = append(results, &core.SearchResult{
				Chunk:      &copied,
				Similarity: cosineSimilarity(embedding, chunk.Embedding),
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > matchCount {
		results = results[:matchCount]
	}
	return results, nil
}

func (r *DocumentRepository) ChunksByURL(ctx context.Context, url string) ([]*core.DocumentChunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byIndex, ok := r.chunks[url]
	if !ok {
		return nil, nil
	}
	chunks := make([]*core.DocumentChunk, 0, len(byIndex))
	for _, chunk := range byIndex {
		copied := *chunk
		chunks = append(chunks, &copied)
	}
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})
	return chunks, nil
}

func (r *DocumentRepository) ListSources(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, byIndex := range r.chunks {
		for _, chunk := range byIndex {
			if source, ok := chunk.Metadata["source"].(string); ok && source != "" {
				seen[source] = true
			}
		}
	}
	sources := make([]string, 0, len(seen))
	for source := range seen {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources, nil
}

func (r *DocumentRepository) ListURLs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	urls := make([]string, 0, len(r.chunks))
	for url, byIndex := range r.chunks {
		if len(byIndex) > 0 {
			urls = append(urls, url)
		}
	}
	sort.Strings(urls)
	return urls, nil
}

func (r *DocumentRepository) Close() error {
	return nil
}

// metadataContains reports whether metadata holds every key/value pair in
// the filter, matching jsonb containment on string fields.
func metadataContains(metadata map[string]any, filter map[string]string) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}
