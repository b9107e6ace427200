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

// Package docvault is a document vault: it ingests documents as embedded
// chunks into PostgreSQL with pgvector and retrieves them by semantic
// similarity. Store wires the storage, AI, ingestion, and search layers
// together for callers that want the whole stack behind one handle.
package docvault

import (
	"context"
	"log/slog"

	"github.com/pelagiclabs/docvault/ai"
	"github.com/pelagiclabs/docvault/ai/openai"
	"github.com/pelagiclabs/docvault/ingestion"
	"github.com/pelagiclabs/docvault/search"
	"github.com/pelagiclabs/docvault/storage"
	"github.com/pelagiclabs/docvault/storage/postgres"
)

// Store owns a connection pool, the repositories built on it, and an AI
// provider.
type Store struct {
	pool         *postgres.Pool
	documentRepo storage.DocumentRepository
	entityRepo   storage.EntityRepository
	provider     ai.Provider
	dimension    int
	logger       *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	poolOpts []postgres.PoolOption
}

// WithAIConfig sets the configuration used to build the OpenAI-compatible
// AI provider.
func WithAIConfig(config *ai.Config) StoreOption {
	return func(o *storeOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI
// default. Useful for tests and alternative backends.
func WithProvider(provider ai.Provider) StoreOption {
	return func(o *storeOptions) {
		o.provider = provider
	}
}

// WithPoolOptions passes options through to the connection pool.
func WithPoolOptions(opts ...postgres.PoolOption) StoreOption {
	return func(o *storeOptions) {
		o.poolOpts = append(o.poolOpts, opts...)
	}
}

// NewStore connects to PostgreSQL and assembles the repositories and AI
// provider.
func NewStore(ctx context.Context, dbConfig *postgres.Config, opts ...StoreOption) (*Store, error) {
	options := &storeOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	pool, err := postgres.NewPool(ctx, dbConfig, options.poolOpts...)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			pool.Close()
			return nil, err
		}
	}

	documentRepo, err := postgres.NewDocumentRepository(pool)
	if err != nil {
		provider.Close()
		pool.Close()
		return nil, err
	}
	entityRepo, err := postgres.NewEntityRepository(pool)
	if err != nil {
		provider.Close()
		pool.Close()
		return nil, err
	}

	return &Store{
		pool:         pool,
		documentRepo: documentRepo,
		entityRepo:   entityRepo,
		provider:     provider,
		dimension:    provider.Embedder().Dimension(),
		logger:       slog.Default().With("component", "store"),
	}, nil
}

// EnsureSchema creates the extension, schema, tables, indexes, and search
// function if they do not already exist. Safe to run repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.pool.EnsureSchema(ctx, s.dimension)
}

// HealthCheck reports whether the database connection is usable.
func (s *Store) HealthCheck(ctx context.Context) bool {
	return s.pool.HealthCheck(ctx)
}

// DocumentRepository returns the chunk storage layer.
func (s *Store) DocumentRepository() storage.DocumentRepository {
	return s.documentRepo
}

// EntityRepository returns the knowledge-graph entity storage layer.
func (s *Store) EntityRepository() storage.EntityRepository {
	return s.entityRepo
}

// Provider returns the AI provider.
func (s *Store) Provider() ai.Provider {
	return s.provider
}

// NewWriter creates an ingestion writer over this store.
func (s *Store) NewWriter(opts ...ingestion.Option) (*ingestion.Writer, error) {
	return ingestion.NewWriter(s.documentRepo, s.provider, opts...)
}

// NewEngine creates a search engine with the document backend first and
// the entity backend second.
func (s *Store) NewEngine(opts ...search.Option) (*search.Engine, error) {
	documents, err := search.NewDocumentBackend(s.documentRepo, s.provider)
	if err != nil {
		return nil, err
	}
	entities, err := search.NewEntityBackend(s.entityRepo)
	if err != nil {
		return nil, err
	}
	return search.NewEngine([]search.Backend{documents, entities}, opts...)
}

// Close releases the AI provider and the connection pool.
func (s *Store) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.documentRepo.Close(); err != nil {
		s.logger.Error("error closing document repository", "err", err)
	}
	s.pool.Close()
	return nil
}
