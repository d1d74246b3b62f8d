package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/docqa-be/types"
)

type fakeParser struct {
	calls int
	pages []string
	err   error
}

func (f *fakeParser) ExtractPages(filePath string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}

func newTestIngestService(t *testing.T, parser Parser, embedder Embedder, store *fakeStore) *IngestService {
	t.Helper()
	chunker, err := NewChunker(types.ChunkerConfig{ChunkSize: 20, ChunkOverlap: 5})
	require.NoError(t, err)
	svc, err := NewIngestService(t.TempDir(), parser, chunker, embedder, store, nil, 5*time.Second)
	require.NoError(t, err)
	return svc
}

func multipartPDF(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("pdf", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/upload/pdf", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	_, header, err := req.FormFile("pdf")
	require.NoError(t, err)
	return header
}

func TestNewIngestServiceRejectsUnusableUploadDir(t *testing.T) {
	// a regular file where the upload dir should go makes MkdirAll fail
	blocker := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	chunker, err := NewChunker(DefaultChunkerConfig)
	require.NoError(t, err)

	_, err = NewIngestService(filepath.Join(blocker, "uploads"), &fakeParser{}, chunker, &fakeEmbedder{}, &fakeStore{}, nil, time.Second)
	assert.Error(t, err)
}

func TestIngestFileFreshNamespacePerInvocation(t *testing.T) {
	parser := &fakeParser{pages: []string{"first page text", "second page text"}}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	store := &fakeStore{}
	svc := newTestIngestService(t, parser, embedder, store)

	first, err := svc.IngestFile(context.Background(), "doc.pdf", types.UploadMetadata{Title: "doc"})
	require.NoError(t, err)
	second, err := svc.IngestFile(context.Background(), "doc.pdf", types.UploadMetadata{Title: "doc"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Namespace, second.Namespace)
	_, err = uuid.Parse(first.Namespace)
	assert.NoError(t, err)
	_, err = uuid.Parse(second.Namespace)
	assert.NoError(t, err)
}

func TestIngestFileCountsAndRecords(t *testing.T) {
	parser := &fakeParser{pages: []string{"first page text", "second page text"}}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	store := &fakeStore{}
	svc := newTestIngestService(t, parser, embedder, store)

	result, err := svc.IngestFile(context.Background(), "doc.pdf", types.UploadMetadata{
		Title:  "annual report",
		Source: "doc.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.PageCount)
	assert.Positive(t, result.ChunkCount)

	require.Len(t, store.upserted, 1)
	records := store.upserted[0]
	require.Len(t, records, result.ChunkCount)
	for _, rec := range records {
		assert.Equal(t, result.Namespace+":"+rec.Metadata["seq"], rec.ID)
		assert.Equal(t, "annual report", rec.Metadata["title"])
		assert.Equal(t, "doc.pdf", rec.Metadata["source"])
		assert.NotEmpty(t, rec.Metadata["page"])
		assert.NotEmpty(t, rec.Content)
		assert.Equal(t, []float32{1, 0}, rec.Vector)
	}
	assert.Equal(t, "1", records[0].Metadata["page"])
}

func TestIngestFileThreePagesTwelveChunks(t *testing.T) {
	// three pages joined with separators give 183 bytes, which a
	// size-20/overlap-5 window splits into exactly 12 chunks
	parser := &fakeParser{pages: []string{
		strings.Repeat("a", 60),
		strings.Repeat("b", 60),
		strings.Repeat("c", 61),
	}}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	store := &fakeStore{}
	svc := newTestIngestService(t, parser, embedder, store)

	result, err := svc.IngestFile(context.Background(), "doc.pdf", types.UploadMetadata{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.PageCount)
	assert.Equal(t, 12, result.ChunkCount)
	assert.NotEmpty(t, result.Namespace)
}

func TestIngestFileEmptyDocumentSkipsEmbedAndUpsert(t *testing.T) {
	parser := &fakeParser{pages: nil}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	store := &fakeStore{}
	svc := newTestIngestService(t, parser, embedder, store)

	result, err := svc.IngestFile(context.Background(), "empty.pdf", types.UploadMetadata{})
	require.NoError(t, err)

	assert.Zero(t, result.ChunkCount)
	assert.Zero(t, result.PageCount)
	assert.Zero(t, embedder.embedCalls)
	assert.Empty(t, store.upserted)
}

func TestIngestFileParseError(t *testing.T) {
	parser := &fakeParser{err: errors.New("malformed xref table")}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	store := &fakeStore{}
	svc := newTestIngestService(t, parser, embedder, store)

	_, err := svc.IngestFile(context.Background(), "broken.pdf", types.UploadMetadata{})
	require.Error(t, err)

	var upstream *types.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "parse", upstream.Op)
	assert.Zero(t, embedder.embedCalls)
	assert.Empty(t, store.upserted)
}

func TestIngestFileEmbedErrorStopsPipeline(t *testing.T) {
	parser := &fakeParser{pages: []string{"some page text"}}
	embedErr := types.NewUpstreamError("embed", errors.New("model overloaded"))
	embedder := &fakeEmbedder{err: embedErr}
	store := &fakeStore{}
	svc := newTestIngestService(t, parser, embedder, store)

	_, err := svc.IngestFile(context.Background(), "doc.pdf", types.UploadMetadata{})
	require.ErrorIs(t, err, embedErr)
	assert.Empty(t, store.upserted)
}

func TestIngestFileUpsertErrorReportsPartialProgress(t *testing.T) {
	parser := &fakeParser{pages: []string{"a long enough page to produce several chunks of text here"}}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	store := &fakeStore{upsertErr: errors.New("weaviate unavailable"), upsertStored: 1}
	svc := newTestIngestService(t, parser, embedder, store)

	_, err := svc.IngestFile(context.Background(), "doc.pdf", types.UploadMetadata{})
	require.Error(t, err)

	var batchErr *types.BatchUpsertError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 1, batchErr.Stored)
	require.Len(t, store.upserted, 1)
	assert.Equal(t, len(store.upserted[0]), batchErr.Attempted)
	assert.Greater(t, batchErr.Attempted, batchErr.Stored)

	var upstream *types.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "upsert", upstream.Op)
}

func TestIngestUploadRejectsNonPDF(t *testing.T) {
	parser := &fakeParser{pages: []string{"text"}}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	store := &fakeStore{}
	svc := newTestIngestService(t, parser, embedder, store)

	header := multipartPDF(t, "notes.txt", "plain text")
	_, err := svc.IngestUpload(context.Background(), header, types.UploadMetadata{})
	require.Error(t, err)
	assert.True(t, types.IsClientInput(err))
	assert.Zero(t, parser.calls)
}

func TestIngestUploadRemovesTempFile(t *testing.T) {
	parser := &fakeParser{pages: []string{"page text"}}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	store := &fakeStore{}
	uploadDir := t.TempDir()
	chunker, err := NewChunker(DefaultChunkerConfig)
	require.NoError(t, err)
	svc, err := NewIngestService(uploadDir, parser, chunker, embedder, store, nil, 5*time.Second)
	require.NoError(t, err)

	header := multipartPDF(t, "doc.pdf", "%PDF-1.4 pretend")
	result, err := svc.IngestUpload(context.Background(), header, types.UploadMetadata{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Namespace)

	entries, err := os.ReadDir(uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp upload should be removed after ingestion")
}

func TestIngestUploadDefaultsTitleToFilename(t *testing.T) {
	parser := &fakeParser{pages: []string{"page text"}}
	embedder := &fakeEmbedder{vector: []float32{1, 0}}
	store := &fakeStore{}
	svc := newTestIngestService(t, parser, embedder, store)

	header := multipartPDF(t, "report.pdf", "%PDF-1.4 pretend")
	_, err := svc.IngestUpload(context.Background(), header, types.UploadMetadata{})
	require.NoError(t, err)

	require.Len(t, store.upserted, 1)
	assert.Equal(t, "report.pdf", store.upserted[0][0].Metadata["title"])
}
