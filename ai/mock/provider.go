package mock

import "github.com/pelagiclabs/docvault/ai"

// MockProvider is a test double for ai.Provider that bundles the mock
// embedder and contextualizer.
type MockProvider struct {
	MockEmbedder       *MockEmbedder
	MockContextualizer *MockContextualizer
}

// NewMockProvider creates a provider whose services use default
// deterministic behavior at the given embedding dimension.
func NewMockProvider(dim int) *MockProvider {
	return &MockProvider{
		MockEmbedder:       NewMockEmbedder(dim),
		MockContextualizer: NewMockContextualizer(),
	}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.MockEmbedder
}

// Contextualizer returns the mock contextualization service.
func (p *MockProvider) Contextualizer() ai.Contextualizer {
	return p.MockContextualizer
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}
