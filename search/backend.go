// Copyright 2026 Pelagic Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"context"
	"log/slog"

	"github.com/pelagiclabs/docvault/ai"
	"github.com/pelagiclabs/docvault/core"
	"github.com/pelagiclabs/docvault/storage"
)

// Backend answers a text query with scored results. Each backend owns its
// retrieval strategy; the engine only merges.
type Backend interface {
	// Name identifies the backend in multi-backend results.
	Name() string

	// Search returns up to matchCount results for the query, scored in
	// [0, 1] and sorted by descending similarity. The filter restricts
	// results by metadata equality; backends without metadata ignore it.
	Search(ctx context.Context, query string, matchCount int, filter map[string]string) ([]*core.SearchResult, error)
}

// DocumentBackend retrieves chunks by embedding the query and running a
// vector similarity search against the document repository.
type DocumentBackend struct {
	repository storage.DocumentRepository
	embedder   ai.Embedder
	logger     *slog.Logger
}

// NewDocumentBackend creates a vector-search backend over stored chunks.
func NewDocumentBackend(repository storage.DocumentRepository, provider ai.Provider) (*DocumentBackend, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	return &DocumentBackend{
		repository: repository,
		embedder:   provider.Embedder(),
		logger:     slog.Default().With("component", "document-backend"),
	}, nil
}

// Name returns "documents".
func (b *DocumentBackend) Name() string {
	return "documents"
}

// Search embeds the query and delegates to the repository's vector search.
func (b *DocumentBackend) Search(ctx context.Context, query string, matchCount int, filter map[string]string) ([]*core.SearchResult, error) {
	if err := core.ValidateSearchParams(query, matchCount); err != nil {
		return nil, err
	}

	embedding, err := b.embedder.EmbedText(ctx, query)
	if err != nil {
		b.logger.Error("error embedding query", "err", err)
		return nil, err
	}

	results, err := b.repository.Search(ctx, embedding, matchCount, filter)
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		result.Backend = b.Name()
	}
	return results, nil
}

// EntityBackend retrieves knowledge-graph entities whose identifiers or
// descriptions match the query words.
type EntityBackend struct {
	repository storage.EntityRepository
	logger     *slog.Logger
}

// NewEntityBackend creates an entity-search backend.
func NewEntityBackend(repository storage.EntityRepository) (*EntityBackend, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	return &EntityBackend{
		repository: repository,
		logger:     slog.Default().With("component", "entity-backend"),
	}, nil
}

// Name returns "entities".
func (b *EntityBackend) Name() string {
	return "entities"
}

// Search queries the entity repository and adapts matches into search
// results. Entity results carry no chunk metadata, so the filter is
// ignored.
func (b *EntityBackend) Search(ctx context.Context, query string, matchCount int, filter map[string]string) ([]*core.SearchResult, error) {
	if err := core.ValidateSearchParams(query, matchCount); err != nil {
		return nil, err
	}

	entities, err := b.repository.QueryEntities(ctx, query, matchCount)
	if err != nil {
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(entities))
	for _, entity := range entities {
		results = append(results, &core.SearchResult{
			Chunk: &core.DocumentChunk{
				URL:     entity.SourcePath,
				Content: entity.Description,
				Metadata: map[string]any{
					"entity_id":   entity.EntityID,
					"entity_type": entity.EntityType,
				},
			},
			Similarity: entity.Similarity,
			Backend:    b.Name(),
		})
	}
	return results, nil
}
