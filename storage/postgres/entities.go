package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pelagiclabs/docvault/core"
	"github.com/pelagiclabs/docvault/storage"
)

// The knowledge-graph extension stores vertices and their properties in a
// per-graph schema. This repository reads it; it never writes, and it does
// not own the graph query language.
const entityVertexTable = "chunk_entity_relation._ag_label_vertex"

// EntityRepository implements storage.EntityRepository over the graph
// extension's vertex table. Lookups run through an ordered strategy list:
// per-word matching first, then a plain substring pattern when no word
// matches anything.
type EntityRepository struct {
	pool   *Pool
	logger *slog.Logger
}

// NewEntityRepository creates an entity repository backed by pool.
//
// Returns the storage.EntityRepository interface to enforce abstraction.
func NewEntityRepository(pool *Pool) (storage.EntityRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres: pool required")
	}
	return &EntityRepository{
		pool:   pool,
		logger: slog.Default().With("component", "entity-repository"),
	}, nil
}

type entityStrategy func(ctx context.Context, pattern string, limit int) ([]*core.EntityMatch, error)

// QueryEntities finds entities matching the text pattern, trying each
// strategy in order and returning the first non-empty result set.
// A strategy error is logged and the next strategy is tried.
func (r *EntityRepository) QueryEntities(ctx context.Context, pattern string, limit int) ([]*core.EntityMatch, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("%w: empty pattern", storage.ErrInvalidQuery)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	strategies := []struct {
		name string
		run  entityStrategy
	}{
		{"word-match", r.wordMatch},
		{"substring", r.substringMatch},
	}

	var lastErr error
	for _, strategy := range strategies {
		matches, err := strategy.run(ctx, pattern, limit)
		if err != nil {
			r.logger.Warn("entity search strategy failed", "strategy", strategy.name, "err", err)
			lastErr = err
			continue
		}
		if len(matches) > 0 {
			r.logger.Debug("entity search succeeded", "strategy", strategy.name, "matches", len(matches))
			return matches, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return []*core.EntityMatch{}, nil
}

// wordMatch matches any query word against entity identifiers and
// descriptions. Words travel as a text[] parameter; scoring happens
// client-side.
func (r *EntityRepository) wordMatch(ctx context.Context, pattern string, limit int) ([]*core.EntityMatch, error) {
	words := strings.Fields(strings.ToLower(pattern))
	if len(words) == 0 {
		return nil, nil
	}

	// Overfetch so client-side scoring has something to rank.
	rows, err := r.pool.Query(ctx, `
		SELECT
			properties::json->>'entity_id' AS entity_id,
			properties::json->>'description' AS description,
			properties::json->>'entity_type' AS entity_type,
			properties::json->>'file_path' AS file_path
		FROM `+entityVertexTable+`
		WHERE EXISTS (
			SELECT 1 FROM unnest($1::text[]) AS w(term)
			WHERE properties::json->>'entity_id' ILIKE '%' || w.term || '%'
			   OR properties::json->>'description' ILIKE '%' || w.term || '%'
		)
		LIMIT $2`, words, limit*2)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches, err := scanEntities(rows, pattern, words)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// substringMatch is the fallback strategy: one pattern against both
// columns.
func (r *EntityRepository) substringMatch(ctx context.Context, pattern string, limit int) ([]*core.EntityMatch, error) {
	like := "%" + pattern + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT
			properties::json->>'entity_id' AS entity_id,
			properties::json->>'description' AS description,
			properties::json->>'entity_type' AS entity_type,
			properties::json->>'file_path' AS file_path
		FROM `+entityVertexTable+`
		WHERE properties::json->>'entity_id' ILIKE $1
		   OR properties::json->>'description' ILIKE $1
		LIMIT $2`, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches, err := scanEntities(rows, pattern, strings.Fields(strings.ToLower(pattern)))
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches, nil
}

func scanEntities(rows pgx.Rows, pattern string, words []string) ([]*core.EntityMatch, error) {
	var matches []*core.EntityMatch
	for rows.Next() {
		var entityID, description, entityType, filePath *string
		if err := rows.Scan(&entityID, &description, &entityType, &filePath); err != nil {
			return nil, err
		}
		match := &core.EntityMatch{
			EntityID:    deref(entityID),
			Description: deref(description),
			EntityType:  deref(entityType),
			SourcePath:  deref(filePath),
		}
		if match.EntityType == "" {
			match.EntityType = "unknown"
		}
		match.Similarity = scoreEntity(pattern, words, match)
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// scoreEntity assigns a heuristic text-match similarity in [0,1]: exact
// identifier matches rank highest, then identifier and description
// substrings, then the fraction of query words present anywhere.
func scoreEntity(pattern string, words []string, match *core.EntityMatch) float64 {
	query := strings.ToLower(pattern)
	entityID := strings.ToLower(match.EntityID)
	description := strings.ToLower(match.Description)

	score := 0.5
	switch {
	case query == entityID:
		score = 1.0
	case strings.Contains(entityID, query):
		score = 0.9
	case strings.Contains(description, query):
		score = 0.8
	default:
		if len(words) > 0 {
			hits := 0
			for _, word := range words {
				if strings.Contains(entityID, word) || strings.Contains(description, word) {
					hits++
				}
			}
			score = 0.5 + 0.4*float64(hits)/float64(len(words))
		}
	}

	switch strings.ToLower(match.EntityType) {
	case "strategy", "technique", "method":
		score *= 1.1
	}

	return min(score, 1.0)
}

// ListCollections returns the distinct source paths present in the graph.
func (r *EntityRepository) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT properties::json->>'file_path' AS file_path
		FROM `+entityVertexTable+`
		WHERE properties::json->>'file_path' IS NOT NULL
		  AND properties::json->>'file_path' != ''
		ORDER BY file_path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		collections = append(collections, path)
	}
	return collections, rows.Err()
}
