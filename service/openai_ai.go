package service

import (
	"context"
	"errors"
	"io"
	"sort"

	"github.com/sashabaranov/go-openai"
	"github.com/tieubaoca/docqa-be/types"
)

// OpenAIService talks to an OpenAI-compatible endpoint for both
// embeddings and chat completions. A local inference server works as
// long as it speaks the same API.
type OpenAIService struct {
	client         *openai.Client
	model          string
	embeddingModel string
	temperature    float32
	maxTokens      int
}

func NewOpenAIService(baseURL, apiKey, model, embeddingModel string, temperature float32, maxTokens int) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIService{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
		temperature:    temperature,
		maxTokens:      maxTokens,
	}
}

func (s *OpenAIService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *OpenAIService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(s.embeddingModel),
	})
	if err != nil {
		return nil, types.NewUpstreamError("embed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, types.NewUpstreamError("embed", errors.New("embedding count does not match input count"))
	}

	// the API does not guarantee response order
	sort.Slice(resp.Data, func(i, j int) bool {
		return resp.Data[i].Index < resp.Data[j].Index
	})

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		if len(data.Embedding) == 0 {
			return nil, types.NewUpstreamError("embed", errors.New("empty embedding in response"))
		}
		vectors[i] = data.Embedding
	}
	return vectors, nil
}

func (s *OpenAIService) Complete(ctx context.Context, systemPrompt, question string) (string, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       s.model,
			Messages:    s.messages(systemPrompt, question),
			Temperature: s.temperature,
			MaxTokens:   s.maxTokens,
		},
	)
	if err != nil {
		return "", types.NewUpstreamError("complete", err)
	}
	if len(resp.Choices) == 0 {
		return "", types.NewUpstreamError("complete", errors.New("no response generated"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *OpenAIService) CompleteStream(ctx context.Context, systemPrompt, question string, handler types.StreamHandler) error {
	stream, err := s.client.CreateChatCompletionStream(
		ctx,
		openai.ChatCompletionRequest{
			Model:       s.model,
			Messages:    s.messages(systemPrompt, question),
			Temperature: s.temperature,
			MaxTokens:   s.maxTokens,
		},
	)
	if err != nil {
		return types.NewUpstreamError("complete", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return types.NewUpstreamError("complete", err)
		}
		if len(resp.Choices) > 0 {
			handler(resp.Choices[0].Delta.Content)
		}
	}
}

func (s *OpenAIService) messages(systemPrompt, question string) []openai.ChatCompletionMessage {
	return []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: question,
		},
	}
}
