package services

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewOpenAIEmbedder builds an embeddings.Embedder backed by the OpenAI
// embeddings API. The rest of the pipeline only sees the interface, so
// tests can substitute a fake.
func NewOpenAIEmbedder(apiKey, model string) (embeddings.Embedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	client, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return embedder, nil
}
