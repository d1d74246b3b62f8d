package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/docqa-be/database"
	"github.com/tieubaoca/docqa-be/repository"
	"github.com/tieubaoca/docqa-be/types"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// DocumentHandler exposes the ingestion ledger.
type DocumentHandler struct {
	docRepo repository.DocumentRepo
	store   database.VectorStore
}

func NewDocumentHandler(docRepo repository.DocumentRepo, store database.VectorStore) *DocumentHandler {
	return &DocumentHandler{
		docRepo: docRepo,
		store:   store,
	}
}

func (h *DocumentHandler) HandleListDocuments(c *gin.Context) {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	docs, err := h.docRepo.PaginateDocuments(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to list documents"})
		return
	}
	if docs == nil {
		docs = []*types.DocumentRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *DocumentHandler) HandleGetDocument(c *gin.Context) {
	namespace := c.Param("namespace")
	doc, err := h.docRepo.GetDocument(c.Request.Context(), namespace)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to get document"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// HandleDeleteDocument removes the vectors and the ledger entry for a
// namespace.
func (h *DocumentHandler) HandleDeleteDocument(c *gin.Context) {
	namespace := c.Param("namespace")
	if err := h.store.DeleteNamespace(c.Request.Context(), namespace); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to delete vectors"})
		return
	}
	if err := h.docRepo.DeleteDocument(c.Request.Context(), namespace); err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to delete document record"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "document deleted"})
}
