package factory

import (
	"context"
	"fmt"

	"docqa-be/pkg/llm"
	"docqa-be/pkg/llm/gemini"
	"docqa-be/pkg/llm/huggingface"
	"docqa-be/pkg/llm/ollama"
)

// Settings carries what any provider may need; unused fields are ignored.
type Settings struct {
	Provider      string
	Model         string
	OllamaBaseURL string
	HFAPIKey      string
	HFBaseURL     string
	GeminiAPIKey  string
}

func NewLLMProvider(ctx context.Context, s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case "ollama":
		baseURL := s.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, s.Model), nil
	case "huggingface", "openai":
		return huggingface.NewHuggingFaceProvider(s.HFAPIKey, s.HFBaseURL, s.Model), nil
	case "gemini":
		return gemini.NewGeminiProvider(ctx, s.GeminiAPIKey, s.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
