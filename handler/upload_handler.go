package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/docqa-be/service"
	"github.com/tieubaoca/docqa-be/types"
)

type UploadHandler struct {
	ingestService *service.IngestService
	maxSize       int64
	devMode       bool
}

func NewUploadHandler(ingestService *service.IngestService, maxSizeMB int64, devMode bool) *UploadHandler {
	if maxSizeMB <= 0 {
		maxSizeMB = 20
	}
	return &UploadHandler{
		ingestService: ingestService,
		maxSize:       maxSizeMB << 20,
		devMode:       devMode,
	}
}

func (h *UploadHandler) HandleUploadPDF(c *gin.Context) {
	file, err := c.FormFile("pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: types.ErrMissingFile.Error(),
		})
		return
	}
	if file.Size > h.maxSize {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error: "file too large",
		})
		return
	}

	meta := types.UploadMetadata{
		Title:  c.PostForm("title"),
		Source: c.PostForm("source"),
	}

	result, err := h.ingestService.IngestUpload(c.Request.Context(), file, meta)
	if err != nil {
		if types.IsClientInput(err) {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
			return
		}
		resp := types.ErrorResponse{Error: "failed to process document"}
		if h.devMode {
			resp.Details = err.Error()
		}
		var batchErr *types.BatchUpsertError
		if errors.As(err, &batchErr) && h.devMode {
			resp.Details = batchErr.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	c.JSON(http.StatusOK, types.UploadResponse{
		Message:    "document ingested",
		Namespace:  result.Namespace,
		ChunkCount: result.ChunkCount,
		PageCount:  result.PageCount,
	})
}
