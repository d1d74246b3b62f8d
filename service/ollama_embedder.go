package service

import (
	"context"
	"errors"

	"github.com/tieubaoca/docqa-be/types"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaEmbedder produces embeddings from a local ollama server, for
// deployments that keep everything on their own hardware.
type OllamaEmbedder struct {
	embedder *embeddings.EmbedderImpl
}

func NewOllamaEmbedder(serverURL, model string) (*OllamaEmbedder, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return &OllamaEmbedder{embedder: embedder}, nil
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, types.NewUpstreamError("embed", err)
	}
	if len(vector) == 0 {
		return nil, types.NewUpstreamError("embed", errors.New("empty embedding in response"))
	}
	return vector, nil
}

func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, types.NewUpstreamError("embed", err)
	}
	if len(vectors) != len(texts) {
		return nil, types.NewUpstreamError("embed", errors.New("embedding count does not match input count"))
	}
	for _, v := range vectors {
		if len(v) == 0 {
			return nil, types.NewUpstreamError("embed", errors.New("empty embedding in response"))
		}
	}
	return vectors, nil
}
