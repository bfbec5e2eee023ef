package handler

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/codeman/internal/pkg/response"
	"github.com/xxxsen/codeman/internal/service"
)

type TemplateHandler struct {
	templates *service.TemplateService
}

func NewTemplateHandler(templates *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

func (h *TemplateHandler) List(c *gin.Context) {
	items, err := h.templates.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"templates": items})
}

func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, err := h.templates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"template": tpl})
}

func (h *TemplateHandler) Create(c *gin.Context) {
	input, ok := h.bindInput(c)
	if !ok {
		return
	}
	tpl, err := h.templates.Create(c.Request.Context(), input)
	if err != nil {
		handleError(c, err)
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated, gin.H{"template": tpl})
}

func (h *TemplateHandler) Update(c *gin.Context) {
	input, ok := h.bindInput(c)
	if !ok {
		return
	}
	tpl, err := h.templates.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"template": tpl, "message": "Template updated successfully"})
}

func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.templates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Template deleted successfully"})
}

// bindInput reads the multipart form. The file part is optional and read fully into memory,
// bounded by the upload limit.
func (h *TemplateHandler) bindInput(c *gin.Context) (service.TemplateInput, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxUploadSize+1024*1024)
	input := service.TemplateInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Tags:        c.PostForm("tags"),
		Code:        c.PostForm("code"),
	}
	header, err := c.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return input, true
		}
		badRequest(c, "File size must be less than 10MB")
		return input, false
	}
	file, err := readUpload(header)
	if err != nil {
		badRequest(c, "Failed to read uploaded file")
		return input, false
	}
	input.File = file
	return input, true
}

func readUpload(header *multipart.FileHeader) (*service.UploadFile, error) {
	upload := &service.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}
	if header.Size <= 0 || header.Size > service.MaxUploadSize {
		return upload, nil
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, service.MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	upload.Data = data
	return upload, nil
}
