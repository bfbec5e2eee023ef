package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/codeman/internal/filestore"
	"github.com/xxxsen/codeman/internal/metrics"
	"github.com/xxxsen/codeman/internal/model"
	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
)

const (
	MaxUploadSize = 10 * 1024 * 1024
	// MaxCodeLength bounds pasted code in bytes.
	MaxCodeLength = 100000

	textContentType    = "text/plain"
	defaultContentType = "application/octet-stream"
)

type TemplateRepository interface {
	Create(ctx context.Context, tpl *model.Template) error
	GetByID(ctx context.Context, id string) (*model.Template, error)
	List(ctx context.Context) ([]model.Template, error)
	Update(ctx context.Context, id string, patch model.TemplatePatch) (*model.Template, error)
	Delete(ctx context.Context, id string) error
	ListCodeURLs(ctx context.Context) ([]string, error)
}

// BlobEvictor drops any cached copy of a blob that is about to disappear.
type BlobEvictor interface {
	Evict(url string)
}

type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

type TemplateInput struct {
	Title       string
	Description string
	Tags        string
	Code        string
	File        *UploadFile
}

type blobPayload struct {
	name        string
	contentType string
	data        []byte
	language    string
}

type TemplateService struct {
	templates TemplateRepository
	store     filestore.Store
	evictor   BlobEvictor
	now       func() time.Time
}

func NewTemplateService(templates TemplateRepository, store filestore.Store, evictor BlobEvictor) *TemplateService {
	return &TemplateService{templates: templates, store: store, evictor: evictor, now: time.Now}
}

func (s *TemplateService) List(ctx context.Context) ([]model.Template, error) {
	items, err := s.templates.List(ctx)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrPersistence, "failed to fetch templates", err)
	}
	return items, nil
}

func (s *TemplateService) Get(ctx context.Context, id string) (*model.Template, error) {
	tpl, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err)
	}
	return tpl, nil
}

func (s *TemplateService) Create(ctx context.Context, input TemplateInput) (*model.Template, error) {
	if err := validateMeta(input); err != nil {
		return nil, err
	}
	payload, err := buildPayload(input)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, appErr.New(appErr.ErrInvalid, "Either code or file is required")
	}
	url, err := s.upload(ctx, payload)
	if err != nil {
		return nil, err
	}
	tpl := &model.Template{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Tags:        ParseTags(input.Tags),
		CodeURL:     url,
		Language:    payload.language,
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		s.discardBlob(ctx, url, "create")
		return nil, appErr.Wrap(appErr.ErrPersistence, "failed to save template", err)
	}
	return tpl, nil
}

func (s *TemplateService) Update(ctx context.Context, id string, input TemplateInput) (*model.Template, error) {
	if err := validateMeta(input); err != nil {
		return nil, err
	}
	payload, err := buildPayload(input)
	if err != nil {
		return nil, err
	}
	existing, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(err)
	}
	patch := model.TemplatePatch{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Tags:        ParseTags(input.Tags),
	}
	if payload != nil {
		url, err := s.upload(ctx, payload)
		if err != nil {
			return nil, err
		}
		patch.CodeURL = url
		patch.Language = payload.language
	}
	updated, err := s.templates.Update(ctx, id, patch)
	if err != nil {
		if patch.CodeURL != "" {
			s.discardBlob(ctx, patch.CodeURL, "update")
		}
		if errors.Is(err, appErr.ErrNotFound) {
			return nil, appErr.New(appErr.ErrNotFound, "Template not found")
		}
		return nil, appErr.Wrap(appErr.ErrPersistence, "failed to update template", err)
	}
	if patch.CodeURL != "" && existing.CodeURL != patch.CodeURL {
		s.discardBlob(ctx, existing.CodeURL, "replace")
	}
	return updated, nil
}

func (s *TemplateService) Delete(ctx context.Context, id string) error {
	existing, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return s.lookupError(err)
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			return appErr.New(appErr.ErrNotFound, "Template not found")
		}
		return appErr.Wrap(appErr.ErrPersistence, "failed to delete template", err)
	}
	s.discardBlob(ctx, existing.CodeURL, "delete")
	return nil
}

func (s *TemplateService) upload(ctx context.Context, payload *blobPayload) (string, error) {
	key := filestore.BuildKey(payload.name, s.now())
	url, err := s.store.Put(ctx, key, bytes.NewReader(payload.data), int64(len(payload.data)), payload.contentType)
	metrics.BlobOps.WithLabelValues("put", metrics.Result(err)).Inc()
	if err != nil {
		return "", appErr.Wrap(appErr.ErrStorage, "failed to upload code", err)
	}
	return url, nil
}

// discardBlob never fails the caller; a blob that survives is picked up by the orphan sweep.
func (s *TemplateService) discardBlob(ctx context.Context, url, reason string) {
	if strings.TrimSpace(url) == "" {
		return
	}
	if s.evictor != nil {
		s.evictor.Evict(url)
	}
	err := s.store.Delete(ctx, url)
	metrics.BlobOps.WithLabelValues("delete", metrics.Result(err)).Inc()
	if err != nil {
		logutil.GetLogger(ctx).Warn("delete blob failed",
			zap.String("url", url), zap.String("reason", reason), zap.Error(err))
	}
}

func (s *TemplateService) lookupError(err error) error {
	if errors.Is(err, appErr.ErrNotFound) {
		return appErr.New(appErr.ErrNotFound, "Template not found")
	}
	return appErr.Wrap(appErr.ErrPersistence, "failed to fetch template", err)
}

func validateMeta(input TemplateInput) error {
	if strings.TrimSpace(input.Title) == "" ||
		strings.TrimSpace(input.Description) == "" ||
		strings.TrimSpace(input.Tags) == "" {
		return appErr.New(appErr.ErrInvalid, "Title, description, and tags are required")
	}
	return nil
}

// buildPayload returns nil when neither a usable file nor code is present. A usable file wins over code.
func buildPayload(input TemplateInput) (*blobPayload, error) {
	if input.File != nil && input.File.Size > 0 {
		file := input.File
		if file.Size > MaxUploadSize || int64(len(file.Data)) > MaxUploadSize {
			return nil, appErr.New(appErr.ErrInvalid, "File size must be less than 10MB")
		}
		if !isAllowedUpload(file.Name) {
			return nil, appErr.New(appErr.ErrInvalid, "Invalid file type. Only code files are allowed.")
		}
		contentType := strings.TrimSpace(file.ContentType)
		if contentType == "" {
			contentType = defaultContentType
		}
		return &blobPayload{
			name:        file.Name,
			contentType: contentType,
			data:        file.Data,
			language:    fileExt(file.Name),
		}, nil
	}
	if strings.TrimSpace(input.Code) == "" {
		return nil, nil
	}
	if len(input.Code) > MaxCodeLength {
		return nil, appErr.New(appErr.ErrInvalid, "Code content too large (max 100KB)")
	}
	ext := InferLanguage(input.Code)
	return &blobPayload{
		name:        textFileName(strings.TrimSpace(input.Title), ext),
		contentType: textContentType,
		data:        []byte(input.Code),
		language:    ext,
	}, nil
}
