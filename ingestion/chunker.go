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

package ingestion

import (
	"strings"

	"github.com/pelagiclabs/docvault/core"
)

// boundaryThreshold is the fraction of the window a natural break must sit
// past before it is honored. Breaking earlier would produce runty chunks.
const boundaryThreshold = 0.3

// Chunker splits markdown-ish text into chunks of at most Size bytes,
// preferring to break on natural boundaries: a code fence first, then a
// paragraph break, then a sentence end.
type Chunker struct {
	size int
}

// NewChunker creates a chunker with the given maximum chunk size.
// The size must satisfy core.ValidateChunkSize.
func NewChunker(size int) (*Chunker, error) {
	if err := core.ValidateChunkSize(size); err != nil {
		return nil, err
	}
	return &Chunker{size: size}, nil
}

// Size returns the maximum chunk size in bytes.
func (c *Chunker) Size() int {
	return c.size
}

// Split cuts text into chunks. Each chunk is whitespace-trimmed and
// non-empty; empty input yields no chunks. A window with no usable
// boundary is emitted whole at the size limit.
func (c *Chunker) Split(text string) []string {
	var chunks []string
	threshold := int(float64(c.size) * boundaryThreshold)

	start := 0
	for start < len(text) {
		end := start + c.size
		if end >= len(text) {
			if tail := strings.TrimSpace(text[start:]); tail != "" {
				chunks = append(chunks, tail)
			}
			break
		}

		window := text[start:end]
		if fence := strings.LastIndex(window, "```"); fence != -1 {
			if fence > threshold {
				end = start + fence
			}
		} else if para := strings.LastIndex(window, "\n\n"); para != -1 {
			if para > threshold {
				end = start + para
			}
		} else if period := strings.LastIndex(window, ". "); period != -1 {
			if period > threshold {
				// Keep the period with the sentence it ends.
				end = start + period + 1
			}
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		start = end
	}
	return chunks
}
