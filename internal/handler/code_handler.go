package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/codeman/internal/pkg/response"
	"github.com/xxxsen/codeman/internal/service"
)

type CodeHandler struct {
	code *service.CodeService
}

func NewCodeHandler(code *service.CodeService) *CodeHandler {
	return &CodeHandler{code: code}
}

type fetchCodeRequest struct {
	CodeURL string `json:"codeUrl"`
}

func (h *CodeHandler) Fetch(c *gin.Context) {
	var req fetchCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Code URL is required")
		return
	}
	code, err := h.code.FetchCode(c.Request.Context(), req.CodeURL)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"code": code})
}
