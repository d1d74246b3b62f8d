package service

import (
	"context"

	"github.com/tieubaoca/docqa-be/types"
)

// Embedder turns text into fixed-length vectors via a remote embedding
// model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch preserves input order and cardinality.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer generates an answer from a system prompt and a user
// question.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, question string) (string, error)
	CompleteStream(ctx context.Context, systemPrompt, question string, handler types.StreamHandler) error
}
