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

package openai

import "fmt"

const contextualSystemPrompt = "You are a helpful assistant that situates document chunks for retrieval."

const contextualPromptTemplate = `<document>
%s
</document>
Here is the chunk we want to situate within the whole document
<chunk>
%s
</chunk>
Please give a short succinct context to situate this chunk within the overall document for the purposes of improving search retrieval of the chunk. Answer only with the succinct context and nothing else.`

// buildContextualPrompt renders the situating prompt for a chunk, trimming
// the document to at most maxDocumentChars runes.
func buildContextualPrompt(document, chunk string, maxDocumentChars int) string {
	return fmt.Sprintf(contextualPromptTemplate, truncateRunes(document, maxDocumentChars), chunk)
}

// truncateRunes cuts s to at most n runes without splitting a multibyte
// character.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
