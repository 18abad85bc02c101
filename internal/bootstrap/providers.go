package bootstrap

import (
	"context"
	"fmt"
	"log"

	"docqa-be/internal/config"
	"docqa-be/pkg/embedding"
	"docqa-be/pkg/index"
	"docqa-be/pkg/llm"
	"docqa-be/pkg/llm/factory"
)

// NewEmbedders picks the embedding backend named by EMBEDDING_PROVIDER.
func NewEmbedders(ctx context.Context, cfg *config.Config) (index.Embedders, error) {
	var provider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "gemini":
		p, err := embedding.NewGeminiProvider(ctx, cfg.Keys.GoogleGemini)
		if err != nil {
			return index.Embedders{}, fmt.Errorf("gemini embeddings: %w", err)
		}
		provider = p
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	case "ollama", "":
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	default:
		return index.Embedders{}, fmt.Errorf("unknown embedding provider %q", cfg.Ai.EmbeddingProvider)
	}

	return index.Embedders{
		Document: embedding.EmbeddingFunc(provider, embedding.TaskRetrievalDocument),
		Query:    embedding.EmbeddingFunc(provider, embedding.TaskRetrievalQuery),
	}, nil
}

// NewLLM builds the oracle named by LLM_PROVIDER.
func NewLLM(ctx context.Context, cfg *config.Config) (llm.LLMProvider, error) {
	p, err := factory.NewLLMProvider(ctx, factory.Settings{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		HFAPIKey:      cfg.Keys.HuggingFace,
		HFBaseURL:     cfg.Ai.HuggingFaceURL,
		GeminiAPIKey:  cfg.Keys.GoogleGemini,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	return p, nil
}
