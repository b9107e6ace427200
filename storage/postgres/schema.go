package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pelagiclabs/docvault/storage"
)

// schemaStatements returns the DDL applied by EnsureSchema, in order.
// dimension is the embedding column width; it must match the embedder's
// configured output size.
func schemaStatements(dimension int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		`CREATE SCHEMA IF NOT EXISTS crawl`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS crawl.crawled_pages (
			id bigserial PRIMARY KEY,
			url text NOT NULL,
			chunk_number integer NOT NULL,
			content text NOT NULL,
			metadata jsonb NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d),
			created_at timestamptz NOT NULL DEFAULT now(),
			UNIQUE (url, chunk_number)
		)`, dimension),

		`CREATE INDEX IF NOT EXISTS idx_crawled_pages_embedding
			ON crawl.crawled_pages
			USING ivfflat (embedding vector_cosine_ops)
			WITH (lists = 100)`,

		`CREATE INDEX IF NOT EXISTS idx_crawled_pages_metadata
			ON crawl.crawled_pages
			USING gin (metadata)`,

		fmt.Sprintf(`CREATE OR REPLACE FUNCTION crawl.match_crawled_pages(
			query_embedding vector(%d),
			match_count int DEFAULT 10,
			filter jsonb DEFAULT '{}'::jsonb
		)
		RETURNS TABLE (
			id bigint,
			url text,
			chunk_number integer,
			content text,
			metadata jsonb,
			similarity double precision
		)
		LANGUAGE plpgsql
		AS $$
		BEGIN
			RETURN QUERY
			SELECT
				cp.id,
				cp.url,
				cp.chunk_number,
				cp.content,
				cp.metadata,
				1 - (cp.embedding <=> query_embedding) AS similarity
			FROM crawl.crawled_pages cp
			WHERE cp.metadata @> filter
			ORDER BY cp.embedding <=> query_embedding
			LIMIT match_count;
		END;
		$$`, dimension),
	}
}

// EnsureSchema applies the store's DDL. It is idempotent: "already exists"
// and "does not exist" conditions are skipped; any other failure is fatal
// and wrapped in storage.ErrSchemaSetup.
func (p *Pool) EnsureSchema(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive", storage.ErrSchemaSetup)
	}

	statements := schemaStatements(dimension)
	for i, stmt := range statements {
		if err := p.Exec(ctx, stmt); err != nil {
			if isIgnorableDDLError(err) {
				p.logger.Debug("skipping schema statement", "statement", i+1, "err", err)
				continue
			}
			return fmt.Errorf("%w: statement %d/%d: %v", storage.ErrSchemaSetup, i+1, len(statements), err)
		}
	}

	p.logger.Info("database schema verified", "statements", len(statements))
	return nil
}

// isIgnorableDDLError reports whether a DDL failure indicates the object is
// already in the desired state.
func isIgnorableDDLError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "does not exist")
}
