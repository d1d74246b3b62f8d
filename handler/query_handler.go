package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/docqa-be/service"
	"github.com/tieubaoca/docqa-be/types"
)

type QueryHandler struct {
	queryService *service.QueryService
	devMode      bool
}

func NewQueryHandler(queryService *service.QueryService, devMode bool) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		devMode:      devMode,
	}
}

func (h *QueryHandler) HandleQuery(c *gin.Context) {
	var req types.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid request body"})
		return
	}

	resp, err := h.queryService.Answer(c.Request.Context(), req)
	if err != nil {
		if types.IsClientInput(err) {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
			return
		}
		out := types.ErrorResponse{Error: "failed to answer question"}
		if h.devMode {
			out.Details = err.Error()
		}
		c.JSON(http.StatusInternalServerError, out)
		return
	}

	c.JSON(http.StatusOK, resp)
}
