package search

import "errors"

var (
	// ErrBackendRequired is returned when an Engine is created without any
	// backend.
	ErrBackendRequired = errors.New("at least one search backend is required")

	// ErrAIProviderRequired is returned when a document backend is created
	// without an AI provider.
	ErrAIProviderRequired = errors.New("ai provider is required")

	// ErrRepositoryRequired is returned when a backend is created without
	// its repository.
	ErrRepositoryRequired = errors.New("repository is required")

	// ErrUnknownBackend is returned when a multi-backend search names a
	// backend the engine does not have.
	ErrUnknownBackend = errors.New("unknown search backend")

	// ErrAllBackendsFailed is returned when every backend in a fan-out
	// search failed.
	ErrAllBackendsFailed = errors.New("all search backends failed")
)
