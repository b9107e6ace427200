// Package ai defines the embedding and contextualization interfaces used
// by ingestion and search, along with the shared provider configuration.
// Concrete implementations live in subpackages: openai for
// OpenAI-compatible APIs and mock for tests.
package ai
