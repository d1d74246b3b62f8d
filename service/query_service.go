package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tieubaoca/docqa-be/database"
	"github.com/tieubaoca/docqa-be/types"
)

const DEFAULT_TOP_K = 5

// QueryService answers a question against one ingested document:
// retrieve the most similar chunks, assemble a grounded prompt and ask
// the completion model.
type QueryService struct {
	embedder     Embedder
	store        database.VectorStore
	completer    Completer
	topK         int
	stageTimeout time.Duration
}

func NewQueryService(embedder Embedder, store database.VectorStore, completer Completer, topK int, stageTimeout time.Duration) *QueryService {
	if topK <= 0 {
		topK = DEFAULT_TOP_K
	}
	return &QueryService{
		embedder:     embedder,
		store:        store,
		completer:    completer,
		topK:         topK,
		stageTimeout: stageTimeout,
	}
}

func (s *QueryService) Answer(ctx context.Context, req types.QueryRequest) (*types.QueryResponse, error) {
	sources, prompt, err := s.retrieve(ctx, req)
	if err != nil {
		return nil, err
	}

	completeCtx, cancel := s.stageContext(ctx)
	defer cancel()
	answer, err := s.completer.Complete(completeCtx, prompt, req.Question)
	if err != nil {
		return nil, err
	}

	return &types.QueryResponse{
		Answer:  answer,
		Sources: sources,
	}, nil
}

// AnswerStream retrieves like Answer but delivers the generated answer
// through handler as it arrives. Sources are reported up front through
// onSources so clients can render them while tokens stream in.
func (s *QueryService) AnswerStream(ctx context.Context, req types.QueryRequest, onSources func([]types.SourceChunk), handler types.StreamHandler) error {
	sources, prompt, err := s.retrieve(ctx, req)
	if err != nil {
		return err
	}
	if onSources != nil {
		onSources(sources)
	}
	return s.completer.CompleteStream(ctx, prompt, req.Question, handler)
}

func (s *QueryService) retrieve(ctx context.Context, req types.QueryRequest) ([]types.SourceChunk, string, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, "", types.ErrMissingQuestion
	}
	if strings.TrimSpace(req.Namespace) == "" {
		return nil, "", types.ErrMissingNamespace
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	embedCtx, cancel := s.stageContext(ctx)
	defer cancel()
	vector, err := s.embedder.Embed(embedCtx, req.Question)
	if err != nil {
		return nil, "", err
	}

	searchCtx, cancel := s.stageContext(ctx)
	defer cancel()
	results, err := s.store.Search(searchCtx, req.Namespace, vector, topK)
	if err != nil {
		return nil, "", types.NewUpstreamError("search", err)
	}
	if len(results) == 0 {
		log.Debug().Str("namespace", req.Namespace).Msg("no chunks retrieved")
	}

	sources := make([]types.SourceChunk, 0, len(results))
	for _, r := range results {
		sources = append(sources, types.SourceChunk{
			Content:  r.Content,
			Metadata: r.Metadata,
			Score:    r.Score,
		})
	}
	return sources, buildSystemPrompt(results), nil
}

func (s *QueryService) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.stageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.stageTimeout)
}

func buildSystemPrompt(results []database.SearchResult) string {
	var b strings.Builder
	b.WriteString("You are an assistant answering questions about an uploaded document. ")
	b.WriteString("Answer using only the context below. ")
	b.WriteString("If the context does not contain the answer, say you don't know. ")
	b.WriteString("Be concise.\n\nContext:\n")
	if len(results) == 0 {
		b.WriteString("(no relevant context was found)\n")
		return b.String()
	}
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] (page %s) %s\n", i+1, r.Metadata["page"], r.Content)
	}
	return b.String()
}
