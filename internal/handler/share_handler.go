package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/codeman/internal/pkg/response"
	"github.com/xxxsen/codeman/internal/service"
)

type ShareHandler struct {
	shares *service.ShareService
}

func NewShareHandler(shares *service.ShareService) *ShareHandler {
	return &ShareHandler{shares: shares}
}

type createShareRequest struct {
	TemplateID string `json:"templateId"`
}

func (h *ShareHandler) Create(c *gin.Context) {
	var req createShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Template ID is required")
		return
	}
	link, err := h.shares.CreateShareLink(c.Request.Context(), req.TemplateID, requestBaseURL(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"shareLink": link.ShareLink,
		"expiresAt": link.ExpiresAt,
		"message":   "Share link generated successfully",
	})
}

func (h *ShareHandler) Verify(c *gin.Context) {
	tpl, err := h.shares.VerifyToken(c.Request.Context(), c.Query("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"template": tpl})
}
