package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/docqa-be/service"
	"github.com/tieubaoca/docqa-be/types"
)

type stubParser struct {
	calls int
	pages []string
	err   error
}

func (s *stubParser) ExtractPages(filePath string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.pages, nil
}

func uploadRouter(t *testing.T, parser service.Parser, store *stubStore, maxSizeMB int64, devMode bool) *gin.Engine {
	t.Helper()
	chunker, err := service.NewChunker(service.DefaultChunkerConfig)
	require.NoError(t, err)
	ingestService, err := service.NewIngestService(
		t.TempDir(),
		parser,
		chunker,
		&stubEmbedder{vector: []float32{1, 0}},
		store,
		nil,
		time.Second,
	)
	require.NoError(t, err)
	router := gin.New()
	router.POST("/api/v1/upload/pdf", NewUploadHandler(ingestService, maxSizeMB, devMode).HandleUploadPDF)
	return router
}

func postPDF(t *testing.T, router *gin.Engine, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("pdf", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/pdf", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleUploadPDFOK(t *testing.T) {
	parser := &stubParser{pages: []string{"first page", "second page"}}
	router := uploadRouter(t, parser, &stubStore{}, 20, false)

	rec := postPDF(t, router, "report.pdf", []byte("%PDF-1.4 pretend"), map[string]string{
		"title": "quarterly report",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "document ingested", resp.Message)
	assert.NotEmpty(t, resp.Namespace)
	assert.Equal(t, 2, resp.PageCount)
	assert.Positive(t, resp.ChunkCount)
}

func TestHandleUploadPDFMissingFile(t *testing.T) {
	parser := &stubParser{}
	router := uploadRouter(t, parser, &stubStore{}, 20, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload/pdf", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.ErrMissingFile.Error(), resp.Error)
	assert.Zero(t, parser.calls)
}

func TestHandleUploadPDFRejectsNonPDF(t *testing.T) {
	router := uploadRouter(t, &stubParser{pages: []string{"x"}}, &stubStore{}, 20, false)

	rec := postPDF(t, router, "notes.txt", []byte("plain text"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUploadPDFTooLarge(t *testing.T) {
	router := uploadRouter(t, &stubParser{pages: []string{"x"}}, &stubStore{}, 1, false)

	big := bytes.Repeat([]byte("a"), 2<<20)
	rec := postPDF(t, router, "big.pdf", big, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "file too large", resp.Error)
}

func TestHandleUploadPDFParseFailure(t *testing.T) {
	parser := &stubParser{err: errors.New("malformed xref table")}
	router := uploadRouter(t, parser, &stubStore{}, 20, false)

	rec := postPDF(t, router, "broken.pdf", []byte("not a pdf"), nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed to process document", resp.Error)
	assert.Empty(t, resp.Details)
}

func TestHandleUploadPDFUpsertFailureDevMode(t *testing.T) {
	parser := &stubParser{pages: []string{"some page text"}}
	store := &stubStore{upsertErr: errors.New("weaviate unavailable")}
	router := uploadRouter(t, parser, store, 20, true)

	rec := postPDF(t, router, "doc.pdf", []byte("%PDF-1.4 pretend"), nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Details, "weaviate unavailable")
}
