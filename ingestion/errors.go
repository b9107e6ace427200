package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a Writer is created
	// without a document repository.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrAIProviderRequired is returned when a Writer is created without an
	// AI provider.
	ErrAIProviderRequired = errors.New("ai provider is required")

	// ErrNoDocuments is returned when Ingest is called with nothing to ingest.
	ErrNoDocuments = errors.New("no documents to ingest")
)
