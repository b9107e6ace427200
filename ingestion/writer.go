package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/pelagiclabs/docvault/ai"
	"github.com/pelagiclabs/docvault/core"
	"github.com/pelagiclabs/docvault/storage"
)

// DefaultBatchSize is how many chunks are embedded and written per batch.
const DefaultBatchSize = 20

// Document is a source document to ingest.
type Document struct {
	// URL identifies the document and keys its chunks in storage.
	URL string

	// Content is the full document text, typically markdown.
	Content string

	// Metadata is attached to every chunk cut from this document.
	Metadata map[string]any
}

// Writer ingests documents: it chunks them, optionally contextualizes each
// chunk against its source document, embeds the results in batches, and
// replaces any previously stored chunks for the same URLs.
type Writer struct {
	repository storage.DocumentRepository
	provider   ai.Provider
	chunker    *Chunker
	pool       *ants.Pool
	batchSize  int
	contextual bool
	logger     *slog.Logger
}

// Option configures a Writer.
type Option func(*Writer) error

// WithBatchSize sets how many chunks are embedded and stored per batch.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(w *Writer) error {
		if size < 1 {
			size = 1
		}
		w.batchSize = size
		return nil
	}
}

// WithChunkSize sets the maximum chunk size in bytes.
// Default is core.DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(w *Writer) error {
		chunker, err := NewChunker(size)
		if err != nil {
			return err
		}
		w.chunker = chunker
		return nil
	}
}

// WithContextual enables or disables chunk contextualization.
// Default is disabled.
func WithContextual(enabled bool) Option {
	return func(w *Writer) error {
		w.contextual = enabled
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent contextualization.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(w *Writer) error {
		if size < 1 {
			size = 1
		}
		if w.pool != nil {
			w.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		w.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
		return nil
	}
}

// NewWriter creates an ingestion writer.
func NewWriter(repository storage.DocumentRepository, provider ai.Provider, opts ...Option) (*Writer, error) {
	if repository == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	chunker, err := NewChunker(core.DefaultChunkSize)
	if err != nil {
		pool.Release()
		return nil, err
	}

	w := &Writer{
		repository: repository,
		provider:   provider,
		chunker:    chunker,
		pool:       pool,
		batchSize:  DefaultBatchSize,
		logger:     slog.Default().With("component", "ingestion-writer"),
	}

	for _, opt := range opts {
		if optErr := opt(w); optErr != nil {
			w.Release()
			return nil, optErr
		}
	}
	return w, nil
}

// pendingChunk is a chunk awaiting embedding and storage, tied back to its
// source document.
type pendingChunk struct {
	url      string
	index    int
	text     string
	document *Document
}

// Ingest chunks, embeds, and stores the given documents. Previously stored
// chunks for the same URLs are deleted first, so re-ingesting a document
// replaces it. The delete and the writes are separate statements: a crash
// between them leaves those URLs empty until the next ingestion. Batch
// write failures fall back to row-at-a-time writes; rows that still fail
// are counted, not fatal.
func (w *Writer) Ingest(ctx context.Context, documents ...Document) (*core.IngestSummary, error) {
	if len(documents) == 0 {
		return nil, ErrNoDocuments
	}

	var pending []pendingChunk
	urls := make([]string, 0, len(documents))
	seen := make(map[string]bool)
	for i := range documents {
		doc := &documents[i]
		if err := core.ValidateURL(doc.URL); err != nil {
			return nil, err
		}
		if !seen[doc.URL] {
			seen[doc.URL] = true
			urls = append(urls, doc.URL)
		}
		for index, text := range w.chunker.Split(doc.Content) {
			pending = append(pending, pendingChunk{
				url:      doc.URL,
				index:    index,
				text:     text,
				document: doc,
			})
		}
	}

	w.deleteExisting(ctx, urls)

	summary := &core.IngestSummary{Documents: len(documents)}
	for start := 0; start < len(pending); start += w.batchSize {
		end := start + w.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		w.writeBatch(ctx, pending[start:end], summary)
	}

	w.logger.Info("ingestion complete",
		"documents", summary.Documents,
		"stored", summary.ChunksStored,
		"failed", summary.ChunksFailed,
		"contextualized", summary.Contextualized)
	return summary, nil
}

// deleteExisting removes stored chunks for the given URLs, falling back to
// per-URL deletes if the batched delete fails. Delete failures are logged,
// not fatal: the upserts that follow key on (url, chunk_number), so the
// worst case is stale trailing chunks from a longer prior version.
func (w *Writer) deleteExisting(ctx context.Context, urls []string) {
	err := w.repository.DeleteByURLs(ctx, urls)
	if err == nil {
		return
	}
	w.logger.Warn("batched delete failed, retrying per URL", "urls", len(urls), "err", err)

	for _, url := range urls {
		if delErr := w.repository.DeleteByURL(ctx, url); delErr != nil {
			w.logger.Error("failed to delete stored chunks", "url", url, "err", delErr)
		}
	}
}

// writeBatch contextualizes, embeds, and stores one batch of chunks,
// updating the summary counters.
func (w *Writer) writeBatch(ctx context.Context, batch []pendingChunk, summary *core.IngestSummary) {
	texts := make([]string, len(batch))
	for i, pc := range batch {
		texts[i] = pc.text
	}

	var contextualized []bool
	if w.contextual {
		contextualized = w.contextualizeBatch(ctx, batch, texts)
		for _, ok := range contextualized {
			if ok {
				summary.Contextualized++
			}
		}
	}

	embeddings, err := w.provider.Embedder().EmbedTexts(ctx, texts)
	if err != nil || len(embeddings) != len(texts) {
		w.logger.Error("embedding batch failed", "chunks", len(texts), "err", err)
		summary.ChunksFailed += len(batch)
		return
	}

	chunks := make([]*core.DocumentChunk, len(batch))
	for i, pc := range batch {
		metadata := sectionInfo(texts[i])
		for k, v := range pc.document.Metadata {
			metadata[k] = v
		}
		metadata["chunk_size"] = len(texts[i])
		metadata["content_hash"] = core.HashContent(texts[i])
		if contextualized != nil && contextualized[i] {
			metadata["contextual_embedding"] = true
		}
		chunks[i] = &core.DocumentChunk{
			URL:        pc.url,
			ChunkIndex: pc.index,
			Content:    texts[i],
			Metadata:   metadata,
			Embedding:  embeddings[i],
		}
	}

	err = w.repository.UpsertChunks(ctx, chunks)
	if err == nil {
		summary.ChunksStored += len(chunks)
		return
	}
	w.logger.Warn("batch upsert failed, retrying per chunk", "chunks", len(chunks), "err", err)

	for _, chunk := range chunks {
		if err := w.repository.UpsertChunk(ctx, chunk); err != nil {
			w.logger.Error("failed to store chunk", "url", chunk.URL, "chunk", chunk.ChunkIndex, "err", err)
			summary.ChunksFailed++
			continue
		}
		summary.ChunksStored++
	}
}

// contextualizeBatch rewrites texts in place with situating context using
// the worker pool. Results land at the submitting index, so chunk order is
// preserved regardless of completion order. The returned slice marks which
// chunks were successfully contextualized.
func (w *Writer) contextualizeBatch(ctx context.Context, batch []pendingChunk, texts []string) []bool {
	contextualizer := w.provider.Contextualizer()
	successes := make([]bool, len(batch))

	var wg sync.WaitGroup
	for i := range batch {
		i := i
		wg.Add(1)
		err := w.pool.Submit(func() {
			defer wg.Done()
			text, ok := contextualizer.Contextualize(ctx, batch[i].document.Content, batch[i].text)
			if ok {
				texts[i] = text
				successes[i] = true
			}
		})
		if err != nil {
			// Pool rejected the task; keep the original chunk text.
			wg.Done()
			w.logger.Warn("contextualization task rejected", "err", err)
		}
	}
	wg.Wait()
	return successes
}

// Release releases the contextualization worker pool.
// The writer should not be used after calling Release.
func (w *Writer) Release() {
	if w.pool != nil {
		w.pool.Release()
	}
}
