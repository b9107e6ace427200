// Package openai implements the ai interfaces against OpenAI-compatible
// HTTP APIs (OpenAI itself, Ollama, LocalAI, vLLM).
package openai
