package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pelagiclabs/docvault/core"
	"github.com/pelagiclabs/docvault/storage"
	"github.com/pgvector/pgvector-go"
)

const upsertChunkSQL = `
	INSERT INTO crawl.crawled_pages (url, chunk_number, content, metadata, embedding)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (url, chunk_number)
	DO UPDATE SET
		content = EXCLUDED.content,
		metadata = EXCLUDED.metadata,
		embedding = EXCLUDED.embedding,
		created_at = CURRENT_TIMESTAMP`

// DocumentRepository implements storage.DocumentRepository on a PostgreSQL
// store with the pgvector extension.
type DocumentRepository struct {
	pool   *Pool
	logger *slog.Logger
}

// NewDocumentRepository creates a document repository backed by pool.
//
// Returns the storage.DocumentRepository interface to enforce abstraction.
func NewDocumentRepository(pool *Pool) (storage.DocumentRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres: pool required")
	}
	return &DocumentRepository{
		pool:   pool,
		logger: slog.Default().With("component", "document-repository"),
	}, nil
}

// UpsertChunks writes a batch of chunks in one pipelined round trip,
// replacing rows that conflict on (url, chunk_number).
func (r *DocumentRepository) UpsertChunks(ctx context.Context, chunks []*core.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(chunks))
	for _, chunk := range chunks {
		args, err := chunkArgs(chunk)
		if err != nil {
			return err
		}
		rows = append(rows, args)
	}

	if err := r.pool.ExecMany(ctx, upsertChunkSQL, rows); err != nil {
		return err
	}
	r.logger.Debug("upserted chunk batch", "chunks", len(chunks))
	return nil
}

// UpsertChunk writes one chunk with the same conflict semantics as
// UpsertChunks.
func (r *DocumentRepository) UpsertChunk(ctx context.Context, chunk *core.DocumentChunk) error {
	args, err := chunkArgs(chunk)
	if err != nil {
		return err
	}
	return r.pool.Exec(ctx, upsertChunkSQL, args...)
}

func chunkArgs(chunk *core.DocumentChunk) ([]any, error) {
	if err := core.ValidateChunk(chunk); err != nil {
		return nil, err
	}
	metadata, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshaling chunk metadata: %w", err)
	}
	return []any{
		chunk.URL,
		chunk.ChunkIndex,
		chunk.Content,
		metadata,
		pgvector.NewVector(chunk.Embedding),
	}, nil
}

// DeleteByURLs removes all chunks for the given URLs in one statement.
func (r *DocumentRepository) DeleteByURLs(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	return r.pool.Exec(ctx, `DELETE FROM crawl.crawled_pages WHERE url = ANY($1)`, urls)
}

// DeleteByURL removes all chunks for a single URL.
func (r *DocumentRepository) DeleteByURL(ctx context.Context, url string) error {
	return r.pool.Exec(ctx, `DELETE FROM crawl.crawled_pages WHERE url = $1`, url)
}

// Search invokes the server-side similarity function, returning up to
// matchCount chunks ordered by descending similarity. The filter is passed
// as a typed jsonb parameter, never interpolated into the statement.
func (r *DocumentRepository) Search(ctx context.Context, embedding []float32, matchCount int, filter map[string]string) ([]*core.SearchResult, error) {
	if matchCount < 1 {
		return nil, fmt.Errorf("%w: match count must be positive", storage.ErrInvalidQuery)
	}

	filterArg := map[string]string{}
	if filter != nil {
		filterArg = filter
	}
	filterJSON, err := json.Marshal(filterArg)
	if err != nil {
		return nil, fmt.Errorf("marshaling filter: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT url, chunk_number, content, metadata, similarity
		FROM crawl.match_crawled_pages($1, $2, $3::jsonb)`,
		pgvector.NewVector(embedding), matchCount, string(filterJSON))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*core.SearchResult
	for rows.Next() {
		var (
			chunk      core.DocumentChunk
			metadata   []byte
			similarity float64
		)
		if err := rows.Scan(&chunk.URL, &chunk.ChunkIndex, &chunk.Content, &metadata, &similarity); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metadata, &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
		results = append(results, &core.SearchResult{
			Chunk:      &chunk,
			Similarity: similarity,
		})
	}
	return results, rows.Err()
}

// ChunksByURL retrieves every chunk stored for a URL, ordered by chunk
// index.
func (r *DocumentRepository) ChunksByURL(ctx context.Context, url string) ([]*core.DocumentChunk, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT url, chunk_number, content, metadata, embedding, created_at
		FROM crawl.crawled_pages
		WHERE url = $1
		ORDER BY chunk_number`, url)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*core.DocumentChunk
	for rows.Next() {
		var (
			chunk     core.DocumentChunk
			metadata  []byte
			embedding pgvector.Vector
		)
		if err := rows.Scan(&chunk.URL, &chunk.ChunkIndex, &chunk.Content, &metadata, &embedding, &chunk.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metadata, &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
		chunk.Embedding = embedding.Slice()
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

// ListSources returns the distinct metadata source values present in the
// store.
func (r *DocumentRepository) ListSources(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT metadata->>'source' AS source
		FROM crawl.crawled_pages
		WHERE metadata->>'source' IS NOT NULL
		ORDER BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

// ListURLs returns the distinct document URLs present in the store.
func (r *DocumentRepository) ListURLs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT url
		FROM crawl.crawled_pages
		ORDER BY url`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

// Close is a no-op: the pool's lifecycle is owned by the caller that
// constructed it, not by individual repositories.
func (r *DocumentRepository) Close() error {
	return nil
}
