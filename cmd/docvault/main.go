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

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pelagiclabs/docvault"
	"github.com/pelagiclabs/docvault/ai"
	"github.com/pelagiclabs/docvault/core"
	"github.com/pelagiclabs/docvault/ingestion"
	"github.com/pelagiclabs/docvault/reembed"
	"github.com/pelagiclabs/docvault/storage/postgres"
)

func main() {
	app := &cli.App{
		Name:  "docvault",
		Usage: "Document vault with semantic retrieval over PostgreSQL/pgvector",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
				Value: "https://api.openai.com/v1",
			},
			&cli.StringFlag{
				Name:  "generative-host",
				Usage: "Chat-completion service host URL (defaults to embedding-host)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "text-embedding-3-small",
			},
			&cli.StringFlag{
				Name:  "generative-model",
				Usage: "Generative model name for contextualization",
				Value: "gpt-4o-mini",
			},
			&cli.IntFlag{
				Name:  "dimension",
				Usage: "Embedding vector width",
				Value: ai.DefaultEmbeddingDimension,
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API key for the AI services",
				EnvVars: []string{"OPENAI_API_KEY"},
				Value:   "none",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "setup",
				Usage:  "Create the database schema, indexes, and search function",
				Action: setupCommand,
			},
			{
				Name:      "ingest",
				Usage:     "Ingest a document from a file or stdin",
				ArgsUsage: "[file]",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Aliases:  []string{"u"},
						Usage:    "Source URL identifying the document",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Source tag stored in chunk metadata (defaults to the URL host)",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Maximum chunk size in bytes",
						Value: core.DefaultChunkSize,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed and store per batch",
						Value: ingestion.DefaultBatchSize,
					},
					&cli.BoolFlag{
						Name:  "contextual",
						Usage: "Contextualize chunks against the full document before embedding",
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Worker pool size for contextualization",
						Value: 10,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search stored chunks by semantic similarity",
				ArgsUsage: "query...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   core.DefaultMatchCount,
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Restrict results to chunks from this source",
					},
					&cli.StringSliceFlag{
						Name:  "backends",
						Usage: "Backends to fan the query out to (documents, entities)",
					},
				},
			},
			{
				Name:   "sources",
				Usage:  "List distinct ingested sources",
				Action: sourcesCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "collections",
						Usage: "List entity graph collections instead of document sources",
					},
				},
			},
			{
				Name:   "health",
				Usage:  "Check database connectivity",
				Action: healthCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate embeddings for all stored chunks",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed per API call",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openStore builds a Store from the database environment and global AI
// flags. Callers own the returned store and must Close it.
func openStore(ctx context.Context, c *cli.Context) (*docvault.Store, error) {
	dbConfig, err := postgres.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("database configuration: %w", err)
	}

	generativeHost := c.String("generative-host")
	if generativeHost == "" {
		generativeHost = c.String("embedding-host")
	}
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithGenerativeHost(generativeHost),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerativeModel(c.String("generative-model")),
		ai.WithEmbeddingDimension(c.Int("dimension")),
		ai.WithAPIKey(c.String("api-key")),
	)

	return docvault.NewStore(ctx, dbConfig, docvault.WithAIConfig(aiConfig))
}

func setupCommand(c *cli.Context) error {
	ctx := context.Background()
	store, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("schema setup failed: %w", err)
	}
	fmt.Println("Schema ready")
	return nil
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	var content []byte
	var err error
	if c.Args().Len() > 0 {
		content, err = os.ReadFile(c.Args().First())
	} else {
		content, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	store, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer store.Close()

	writer, err := store.NewWriter(
		ingestion.WithChunkSize(c.Int("chunk-size")),
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithContextual(c.Bool("contextual")),
		ingestion.WithPoolSize(c.Int("pool-size")),
	)
	if err != nil {
		return err
	}
	defer writer.Release()

	url := c.String("url")
	source := c.String("source")
	if source == "" {
		source = hostOf(url)
	}

	summary, err := writer.Ingest(ctx, ingestion.Document{
		URL:      url,
		Content:  string(content),
		Metadata: map[string]any{"source": source},
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Stored %d chunks (%d failed, %d contextualized)\n",
		summary.ChunksStored, summary.ChunksFailed, summary.Contextualized)
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	store, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer store.Close()

	engine, err := store.NewEngine()
	if err != nil {
		return err
	}

	backends := c.StringSlice("backends")
	count := c.Int("count")

	var results []*core.SearchResult
	if len(backends) > 0 {
		multi, err := engine.SearchMulti(ctx, query, backends, count, nil)
		if err != nil {
			return err
		}
		for name, backendErr := range multi.Errors {
			fmt.Fprintf(os.Stderr, "backend %s failed: %v\n", name, backendErr)
		}
		results = multi.Combined
	} else {
		var filter map[string]string
		if source := c.String("source"); source != "" {
			filter = map[string]string{"source": source}
		}
		results, err = engine.Search(ctx, query, count, filter)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: %s #%d [%0.3f]\n", i+1, hit.Chunk.URL, hit.Chunk.ChunkIndex, hit.Similarity)
		fmt.Printf("   %s\n", firstLine(hit.Chunk.Content))
	}
	return nil
}

func sourcesCommand(c *cli.Context) error {
	ctx := context.Background()
	store, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer store.Close()

	list := store.DocumentRepository().ListSources
	if c.Bool("collections") {
		list = store.EntityRepository().ListCollections
	}
	names, err := list(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func healthCommand(c *cli.Context) error {
	ctx := context.Background()
	store, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer store.Close()

	if !store.HealthCheck(ctx) {
		return fmt.Errorf("database is not reachable")
	}
	fmt.Println("ok")
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()
	store, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer store.Close()

	config := &reembed.Config{
		BatchSize:  c.Int("batch-size"),
		MaxRetries: c.Int("max-retries"),
		RetryDelay: c.Duration("retry-delay"),
		Normalize:  true,
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	reembedder := reembed.NewReembedder(store.DocumentRepository(), store.Provider().Embedder(), config, os.Stderr)
	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// hostOf extracts the host from a URL for use as a default source tag.
func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}

// firstLine returns the first line of s, truncated to 120 bytes.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}
