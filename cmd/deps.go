package cmd

import (
	"fmt"

	"github.com/tieubaoca/docqa-be/config"
	"github.com/tieubaoca/docqa-be/database"
	"github.com/tieubaoca/docqa-be/service"
)

// newVectorStore picks the configured vector store implementation.
func newVectorStore(cfg *config.Config) (database.VectorStore, error) {
	switch cfg.VectorStore {
	case "chromem":
		return database.NewChromemStore(cfg.ChromemPath)
	case "weaviate", "":
		return database.NewWeaviateStore(cfg.WeaviateStoreConfig)
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore)
	}
}

func newEmbedder(cfg *config.Config) (service.Embedder, error) {
	switch cfg.EmbeddingProvider {
	case "ollama":
		return service.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel)
	case "openai", "":
		return service.NewOpenAIService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.Model, cfg.EmbeddingModel, cfg.Temperature, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbeddingProvider)
	}
}

func newCompleter(cfg *config.Config) (service.Completer, error) {
	switch cfg.CompletionProvider {
	case "gemini":
		return service.NewGeminiService(cfg.GeminiAPIKeys, cfg.Model)
	case "openai", "":
		return service.NewOpenAIService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.Model, cfg.EmbeddingModel, cfg.Temperature, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unknown completion provider: %s", cfg.CompletionProvider)
	}
}
