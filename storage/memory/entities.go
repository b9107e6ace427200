package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pelagiclabs/docvault/core"
)

// EntityRepository is an in-memory storage.EntityRepository backed by a
// flat slice of entities.
type EntityRepository struct {
	mu       sync.RWMutex
	entities []core.EntityMatch
}

// NewEntityRepository creates an empty in-memory entity repository.
func NewEntityRepository() *EntityRepository {
	return &EntityRepository{}
}

// Add registers an entity. The Similarity field is ignored; scores are
// computed per query.
func (r *EntityRepository) Add(entity core.EntityMatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities = append(r.entities, entity)
}

func (r *EntityRepository) QueryEntities(ctx context.Context, pattern string, limit int) ([]*core.EntityMatch, error) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" || limit < 1 {
		return nil, nil
	}
	words := strings.Fields(pattern)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*core.EntityMatch
	for _, entity := range r.entities {
		id := strings.ToLower(entity.EntityID)
		desc := strings.ToLower(entity.Description)
		hit := strings.Contains(id, pattern) || strings.Contains(desc, pattern)
		if !hit {
			for _, w := range words {
				if strings.Contains(id, w) || strings.Contains(desc, w) {
					hit = true
					break
				}
			}
		}
		if !hit {
			continue
		}
		scored := entity
		scored.Similarity = scoreMatch(&scored, pattern, words)
		matches = append(matches, &scored)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *EntityRepository) ListCollections(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, entity := range r.entities {
		if entity.SourcePath != "" {
			seen[entity.SourcePath] = true
		}
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// scoreMatch mirrors the relevance heuristic of the PostgreSQL entity
// repository so tests exercise identical ordering.
func scoreMatch(entity *core.EntityMatch, pattern string, words []string) float64 {
	id := strings.ToLower(entity.EntityID)
	desc := strings.ToLower(entity.Description)

	var score float64
	switch {
	case id == pattern:
		score = 1.0
	case strings.Contains(id, pattern):
		score = 0.9
	case strings.Contains(desc, pattern):
		score = 0.8
	default:
		hits := 0
		for _, w := range words {
			if strings.Contains(id, w) || strings.Contains(desc, w) {
				hits++
			}
		}
		if len(words) > 0 && hits > 0 {
			score = 0.5 + 0.4*float64(hits)/float64(len(words))
		} else {
			score = 0.5
		}
	}

	switch strings.ToLower(entity.EntityType) {
	case "strategy", "technique", "method":
		score *= 1.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
