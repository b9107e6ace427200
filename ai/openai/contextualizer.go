package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/pelagiclabs/docvault/ai"
)

// Contextualizer implements ai.Contextualizer using OpenAI-compatible chat
// APIs. Any failure degrades to the original chunk; callers never see an
// error from contextualization.
type Contextualizer struct {
	client           llms.Model
	maxDocumentChars int
	logger           *slog.Logger
}

// newContextualizer is an internal constructor that returns the concrete
// type. Used by Provider to manage the instance.
func newContextualizer(config *ai.Config) (*Contextualizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.GenerativeHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.GenerativeModel),
	)
	if err != nil {
		return nil, err
	}

	return &Contextualizer{
		client:           client,
		maxDocumentChars: config.MaxDocumentChars,
		logger:           slog.Default().With("component", "openai-contextualizer"),
	}, nil
}

// NewContextualizer creates a new contextualizer using the provided
// configuration.
//
// Returns ai.Contextualizer interface to enforce abstraction.
func NewContextualizer(config *ai.Config) (ai.Contextualizer, error) {
	return newContextualizer(config)
}

// Contextualize asks the generative model for a short situating context and
// prefixes it to the chunk. On any failure the original chunk is returned
// with ok=false.
func (c *Contextualizer) Contextualize(ctx context.Context, document, chunk string) (string, bool) {
	prompt := buildContextualPrompt(document, chunk, c.maxDocumentChars)
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(contextualSystemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	response, err := c.client.GenerateContent(ctx, content,
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(200),
	)
	if err != nil {
		c.logger.Warn("contextualization failed, keeping original chunk", "err", err)
		return chunk, false
	}
	if len(response.Choices) < 1 {
		c.logger.Debug("no choices returned from model")
		return chunk, false
	}

	situating := strings.TrimSpace(response.Choices[0].Content)
	if situating == "" {
		return chunk, false
	}
	return situating + "\n---\n" + chunk, true
}
