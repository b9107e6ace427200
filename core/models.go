package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DocumentChunk is the persisted retrieval unit: one segment of a source
// document together with its embedding and open metadata.
// (URL, ChunkIndex) uniquely identifies a chunk; re-ingesting a URL replaces
// its chunk set rather than appending to it.
type DocumentChunk struct {
	URL        string
	ChunkIndex int
	Content    string
	Metadata   map[string]any // header path, char/word counts, crawl classification, caller tags
	Embedding  []float32
	CreatedAt  time.Time // server-assigned on write
}

// HashContent returns a deterministic hex digest of text using BLAKE2b.
// Identical content always produces the same digest, which lets
// re-ingestion detect unchanged chunks.
func HashContent(text string) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// SearchResult is a retrieved chunk annotated with a similarity score in
// [0,1] (higher = more relevant) and the name of the backend that produced it.
type SearchResult struct {
	Chunk      *DocumentChunk
	Similarity float64
	Backend    string
}

// EntityMatch is a row from the secondary knowledge-graph backend.
// The graph store is read-only from this module's perspective.
type EntityMatch struct {
	EntityID    string
	Description string
	EntityType  string
	SourcePath  string
	Similarity  float64
}

// IngestSummary reports the outcome of one ingestion call. Partial failures
// degrade into the Failed count instead of aborting the call.
type IngestSummary struct {
	Documents      int // source documents processed
	ChunksStored   int // rows written or replaced
	ChunksFailed   int // rows skipped after batch and row-level writes both failed
	Contextualized int // chunks that received generated context before embedding
}
