package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xxxsen/codeman/internal/metrics"
	"github.com/xxxsen/codeman/internal/model"
	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
	"github.com/xxxsen/codeman/internal/pkg/jwt"
)

const ShareTokenTTL = 10 * time.Minute

// ShareService issues and verifies short-lived, unrevocable share tokens.
// A token stays usable by anyone holding it until it expires.
type ShareService struct {
	templates TemplateRepository
	secret    []byte
	baseURL   string
	now       func() time.Time
}

func NewShareService(templates TemplateRepository, secret []byte, baseURL string) *ShareService {
	return &ShareService{
		templates: templates,
		secret:    secret,
		baseURL:   strings.TrimSpace(baseURL),
		now:       time.Now,
	}
}

// CreateShareLink signs a token for templateID. originHint is the request origin and is
// only used when no base URL is configured.
func (s *ShareService) CreateShareLink(ctx context.Context, templateID, originHint string) (*model.ShareLink, error) {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return nil, appErr.New(appErr.ErrInvalid, "Template ID is required")
	}
	if _, err := s.templates.GetByID(ctx, templateID); err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			return nil, appErr.New(appErr.ErrNotFound, "Template not found")
		}
		return nil, appErr.Wrap(appErr.ErrPersistence, "failed to fetch template", err)
	}
	issued := s.now().UTC().Truncate(time.Second)
	token, err := jwt.GenerateShareToken(templateID, s.secret, issued, ShareTokenTTL)
	metrics.ShareTokens.WithLabelValues("issue", metrics.Result(err)).Inc()
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrInternal, "failed to create share link", err)
	}
	base := s.baseURL
	if base == "" {
		base = originHint
	}
	return &model.ShareLink{
		ShareLink: strings.TrimRight(base, "/") + "/share/" + token,
		Token:     token,
		ExpiresAt: issued.Add(ShareTokenTTL),
	}, nil
}

func (s *ShareService) VerifyToken(ctx context.Context, token string) (*model.Template, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, appErr.New(appErr.ErrInvalid, "Token is required")
	}
	claims, err := jwt.ParseShareToken(token, s.secret, s.now)
	if err != nil {
		metrics.ShareTokens.WithLabelValues("verify", "rejected").Inc()
		if errors.Is(err, jwt.ErrExpired) {
			return nil, appErr.Wrap(appErr.ErrExpired, "Share link has expired", err)
		}
		return nil, appErr.Wrap(appErr.ErrInvalidToken, "Invalid share link", err)
	}
	tpl, err := s.templates.GetByID(ctx, claims.TemplateID)
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			return nil, appErr.New(appErr.ErrNotFound, "Template not found")
		}
		return nil, appErr.Wrap(appErr.ErrPersistence, "failed to fetch template", err)
	}
	metrics.ShareTokens.WithLabelValues("verify", "ok").Inc()
	return tpl, nil
}
