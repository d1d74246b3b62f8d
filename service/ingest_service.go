package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tieubaoca/docqa-be/database"
	"github.com/tieubaoca/docqa-be/repository"
	"github.com/tieubaoca/docqa-be/types"
	"github.com/tieubaoca/docqa-be/utils"
)

// IngestService runs the upload pipeline: parse, chunk, embed, upsert.
// Every invocation mints a fresh namespace so documents sharing the
// index never see each other's vectors.
type IngestService struct {
	uploadDir    string
	parser       Parser
	chunker      *Chunker
	embedder     Embedder
	store        database.VectorStore
	docRepo      repository.DocumentRepo // optional ledger, may be nil
	stageTimeout time.Duration
}

func NewIngestService(
	uploadDir string,
	parser Parser,
	chunker *Chunker,
	embedder Embedder,
	store database.VectorStore,
	docRepo repository.DocumentRepo,
	stageTimeout time.Duration,
) (*IngestService, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %v", uploadDir, err)
	}
	return &IngestService{
		uploadDir:    uploadDir,
		parser:       parser,
		chunker:      chunker,
		embedder:     embedder,
		store:        store,
		docRepo:      docRepo,
		stageTimeout: stageTimeout,
	}, nil
}

// IngestUpload saves the uploaded file to a temporary path, ingests it
// and removes the file again on every exit path.
func (s *IngestService) IngestUpload(ctx context.Context, file *multipart.FileHeader, meta types.UploadMetadata) (*types.IngestResult, error) {
	ext := strings.ToLower(file.Filename)
	if !strings.HasSuffix(ext, ".pdf") {
		return nil, &types.ClientInputError{Reason: fmt.Sprintf("unsupported file type: %s", file.Filename)}
	}

	path, err := utils.SaveMultipartFile(file, s.uploadDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			// never mask the pipeline error with a cleanup failure
			log.Error().Err(err).Str("path", path).Msg("failed to remove temp upload")
		}
	}()

	if meta.Title == "" {
		meta.Title = file.Filename
	}
	return s.IngestFile(ctx, path, meta)
}

// IngestFile runs the pipeline against a file already on disk. The file
// is left in place; callers own its lifetime.
func (s *IngestService) IngestFile(ctx context.Context, path string, meta types.UploadMetadata) (*types.IngestResult, error) {
	namespace := uuid.NewString()

	pages, err := s.parseStage(ctx, path)
	if err != nil {
		return nil, types.NewUpstreamError("parse", err)
	}

	chunks := s.chunker.SplitPages(pages)
	log.Info().
		Str("namespace", namespace).
		Int("pages", len(pages)).
		Int("chunks", len(chunks)).
		Str("title", meta.Title).
		Msg("document chunked")

	if len(chunks) > 0 {
		vectors, err := s.embedStage(ctx, chunks)
		if err != nil {
			return nil, err
		}

		records := buildRecords(namespace, chunks, vectors, meta)
		stored, err := s.upsertStage(ctx, namespace, records)
		if err != nil {
			return nil, &types.BatchUpsertError{
				Stored:    stored,
				Attempted: len(records),
				Err:       types.NewUpstreamError("upsert", err),
			}
		}
	}

	if s.docRepo != nil {
		record := &types.DocumentRecord{
			Namespace:  namespace,
			Title:      meta.Title,
			Source:     meta.Source,
			PageCount:  len(pages),
			ChunkCount: len(chunks),
			CreatedAt:  time.Now().Unix(),
		}
		if err := s.docRepo.CreateDocument(ctx, record); err != nil {
			// vectors are already queryable, a missing ledger entry is not fatal
			log.Error().Err(err).Str("namespace", namespace).Msg("failed to write ingestion record")
		}
	}

	return &types.IngestResult{
		Namespace:  namespace,
		ChunkCount: len(chunks),
		PageCount:  len(pages),
	}, nil
}

func (s *IngestService) parseStage(ctx context.Context, path string) ([]string, error) {
	ctx, cancel := s.stageContext(ctx)
	defer cancel()

	type parsed struct {
		pages []string
		err   error
	}
	done := make(chan parsed, 1)
	go func() {
		pages, err := s.parser.ExtractPages(path)
		done <- parsed{pages, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p := <-done:
		return p.pages, p.err
	}
}

func (s *IngestService) embedStage(ctx context.Context, chunks []types.Chunk) ([][]float32, error) {
	ctx, cancel := s.stageContext(ctx)
	defer cancel()

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	return s.embedder.EmbedBatch(ctx, texts)
}

func (s *IngestService) upsertStage(ctx context.Context, namespace string, records []database.VectorRecord) (int, error) {
	ctx, cancel := s.stageContext(ctx)
	defer cancel()
	return s.store.Upsert(ctx, namespace, records)
}

func (s *IngestService) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.stageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.stageTimeout)
}

func buildRecords(namespace string, chunks []types.Chunk, vectors [][]float32, meta types.UploadMetadata) []database.VectorRecord {
	records := make([]database.VectorRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = database.VectorRecord{
			ID:      fmt.Sprintf("%s:%d", namespace, chunk.Index),
			Vector:  vectors[i],
			Content: chunk.Text,
			Metadata: map[string]string{
				"title":  meta.Title,
				"source": meta.Source,
				"page":   strconv.Itoa(chunk.Page),
				"seq":    strconv.Itoa(chunk.Index),
			},
		}
	}
	return records
}
