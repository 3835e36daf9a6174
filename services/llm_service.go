package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"google.golang.org/genai"
)

// LLMService generates free-form text from a prompt. Answer and quiz
// prompting live in the callers; this layer only hides the provider.
type LLMService interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewLLMService picks the provider from configuration. "openai" runs
// through langchaingo, "gemini" through the Google genai SDK.
func NewLLMService(ctx context.Context, provider, model, openAIKey, geminiKey string) (LLMService, error) {
	switch provider {
	case "openai":
		llm, err := openai.New(openai.WithToken(openAIKey), openai.WithModel(model))
		if err != nil {
			return nil, fmt.Errorf("create openai llm: %w", err)
		}
		return &openAILLM{model: llm}, nil
	case "gemini":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  geminiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return &geminiLLM{client: client, model: model}, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

type openAILLM struct {
	model llms.Model
}

func (o *openAILLM) Generate(ctx context.Context, prompt string) (string, error) {
	answer, err := llms.GenerateFromSinglePrompt(ctx, o.model, prompt, llms.WithTemperature(0.1))
	if err != nil {
		return "", fmt.Errorf("openai generation failed: %w", err)
	}
	return answer, nil
}

type geminiLLM struct {
	client *genai.Client
	model  string
}

func (g *geminiLLM) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}
