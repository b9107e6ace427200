package mock

import (
	"context"
	"sync"
)

// MockContextualizer is a test double for ai.Contextualizer.
type MockContextualizer struct {
	// ContextualizeFunc is called by Contextualize if set.
	// If nil, uses default behavior: prefix the chunk with "context: ".
	ContextualizeFunc func(ctx context.Context, document, chunk string) (string, bool)

	mu        sync.Mutex
	callCount int
}

// NewMockContextualizer creates a mock contextualizer with default behavior.
func NewMockContextualizer() *MockContextualizer {
	return &MockContextualizer{}
}

// Contextualize returns the chunk with a deterministic prefix.
func (m *MockContextualizer) Contextualize(ctx context.Context, document, chunk string) (string, bool) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ContextualizeFunc != nil {
		return m.ContextualizeFunc(ctx, document, chunk)
	}
	return "context: " + chunk, true
}

// CallCount returns the number of times Contextualize was called.
func (m *MockContextualizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
