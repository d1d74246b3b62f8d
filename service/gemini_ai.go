package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/tieubaoca/docqa-be/types"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GeminiService is a Completer backed by the Gemini API. It rotates
// through the configured API keys when a call fails, which works around
// per-key quota exhaustion.
//
// The shared client is only ever swapped under the mutex; each request
// snapshots it and builds its own model, so concurrent requests never
// share mutable state and a rotation cannot invalidate a client that
// another request is still using.
type GeminiService struct {
	apiKeys    []string
	currentKey int
	client     *genai.Client
	modelName  string
	mu         sync.Mutex
}

func NewGeminiService(apiKeys []string, modelName string) (*GeminiService, error) {
	if len(apiKeys) == 0 {
		return nil, errors.New("no API keys provided")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKeys[0]))
	if err != nil {
		return nil, err
	}
	return &GeminiService{
		apiKeys:   apiKeys,
		client:    client,
		modelName: modelName,
	}, nil
}

func (s *GeminiService) currentClient() *genai.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// rotateAPIKey swaps in a client on the next key and returns it. The
// failed client is dropped without Close because outstanding requests
// may still hold it. If another request already rotated away from
// failed, the current client is returned unchanged.
func (s *GeminiService) rotateAPIKey(failed *genai.Client) (*genai.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != failed {
		return s.client, nil
	}
	s.currentKey = (s.currentKey + 1) % len(s.apiKeys)
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(s.apiKeys[s.currentKey]))
	if err != nil {
		return nil, err
	}
	s.client = client
	return client, nil
}

// requestModel builds a model for a single request so the system
// instruction never leaks between concurrent requests.
func (s *GeminiService) requestModel(client *genai.Client, systemPrompt string) *genai.GenerativeModel {
	model := client.GenerativeModel(s.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	return model
}

func (s *GeminiService) Complete(ctx context.Context, systemPrompt, question string) (string, error) {
	client := s.currentClient()
	resp, err := s.requestModel(client, systemPrompt).GenerateContent(ctx, genai.Text(question))
	if err != nil {
		client, rerr := s.rotateAPIKey(client)
		if rerr != nil {
			return "", types.NewUpstreamError("complete", rerr)
		}
		resp, err = s.requestModel(client, systemPrompt).GenerateContent(ctx, genai.Text(question))
		if err != nil {
			return "", types.NewUpstreamError("complete", err)
		}
	}

	if len(resp.Candidates) == 0 {
		return "", types.NewUpstreamError("complete", errors.New("no response generated"))
	}

	content := ""
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					content += string(text)
				}
			}
		}
	}
	return content, nil
}

func (s *GeminiService) CompleteStream(ctx context.Context, systemPrompt, question string, handler types.StreamHandler) error {
	model := s.requestModel(s.currentClient(), systemPrompt)

	iter := model.GenerateContentStream(ctx, genai.Text(question))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return types.NewUpstreamError("complete", err)
		}

		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					handler(string(text))
				}
			}
		}
	}
}
