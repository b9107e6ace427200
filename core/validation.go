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


package core

import (
	"fmt"
	"net/url"
)

// Parameter limits shared across the ingestion and retrieval paths.
const (
	// MinChunkSize is the smallest allowed chunk window in characters.
	MinChunkSize = 100

	// MaxChunkSize is the largest allowed chunk window in characters.
	MaxChunkSize = 10000

	// DefaultChunkSize is the chunk window used when the caller does not
	// specify one.
	DefaultChunkSize = 5000

	// MaxURLLength bounds the length of source URLs.
	MaxURLLength = 2048

	// DefaultMatchCount is the result limit used when the caller does not
	// specify one.
	DefaultMatchCount = 5

	// MaxMatchCount bounds the result limit of a single search.
	MaxMatchCount = 100
)

// ValidateChunk validates a DocumentChunk according to domain rules.
//
// Validation rules:
//   - URL must be a valid http(s) URL
//   - ChunkIndex must be non-negative
//   - Content must not be empty
//
// NOT validated (populated by the pipeline):
//   - Embedding (empty until the embedder runs; zero vectors are legal)
//   - CreatedAt (assigned by the store on write)
func ValidateChunk(chunk *DocumentChunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if err := ValidateURL(chunk.URL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}

	if chunk.ChunkIndex < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeChunkIndex)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	return nil
}

// ValidateURL validates that a source URL is non-empty, within the length
// bound, and has an http or https scheme and a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	if len(raw) > MaxURLLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidURL, MaxURLLength)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	return nil
}

// ValidateChunkSize validates a chunk window size in characters.
func ValidateChunkSize(size int) error {
	if size < MinChunkSize {
		return fmt.Errorf("%w: %d is below minimum %d", ErrInvalidChunkSize, size, MinChunkSize)
	}
	if size > MaxChunkSize {
		return fmt.Errorf("%w: %d exceeds maximum %d", ErrInvalidChunkSize, size, MaxChunkSize)
	}
	return nil
}

// ValidateSearchParams validates a query string and result limit.
func ValidateSearchParams(query string, matchCount int) error {
	if query == "" {
		return ErrEmptyQuery
	}
	if matchCount < 1 || matchCount > MaxMatchCount {
		return fmt.Errorf("%w: %d must be between 1 and %d", ErrInvalidMatchCount, matchCount, MaxMatchCount)
	}
	return nil
}
