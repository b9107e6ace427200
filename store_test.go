package docvault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pelagiclabs/docvault/ai"
	"github.com/pelagiclabs/docvault/ai/mock"
	"github.com/pelagiclabs/docvault/storage/postgres"
)

func TestStoreOptions(t *testing.T) {
	provider := mock.NewMockProvider(8)
	aiConfig := ai.NewConfig(ai.WithEmbeddingModel("embeddinggemma"))

	options := &storeOptions{aiConfig: ai.DefaultConfig()}
	for _, opt := range []StoreOption{
		WithAIConfig(aiConfig),
		WithProvider(provider),
		WithPoolOptions(postgres.WithRetry(1, time.Millisecond)),
	} {
		opt(options)
	}

	assert.Same(t, aiConfig, options.aiConfig)
	assert.Same(t, provider, options.provider)
	assert.Len(t, options.poolOpts, 1)
}
