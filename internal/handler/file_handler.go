package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/codeman/internal/filestore"
	"github.com/xxxsen/codeman/internal/pkg/errcode"
	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
	"github.com/xxxsen/codeman/internal/pkg/response"
)

const blobContentType = "text/plain; charset=utf-8"

// FileHandler serves blobs kept by the local store so that their public URLs resolve.
type FileHandler struct {
	store filestore.Store
}

func NewFileHandler(store filestore.Store) *FileHandler {
	return &FileHandler{store: store}
}

func (h *FileHandler) Get(c *gin.Context) {
	if h.store.Type() != "local" {
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "Not found")
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "\\") {
		badRequest(c, "Invalid file key")
		return
	}
	file, err := h.store.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "File not found")
			return
		}
		badRequest(c, "Invalid file key")
		return
	}
	defer file.Close()
	// every blob is source code; never let a browser render it
	c.Header("Content-Type", blobContentType)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Security-Policy", "sandbox")
	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": path.Base(key)}))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
