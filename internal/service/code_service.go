package service

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/xxxsen/codeman/internal/codecache"
	"github.com/xxxsen/codeman/internal/fetcher"
	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
)

// CodeService relays stored blobs to clients that cannot reach the blob store directly.
// Only URLs under one of the blob store bases are fetched.
type CodeService struct {
	fetcher codecache.Fetcher
	bases   []*url.URL
}

func NewCodeService(fetcher codecache.Fetcher, blobBases ...string) *CodeService {
	s := &CodeService{fetcher: fetcher}
	for _, raw := range blobBases {
		if base := parseBlobBase(raw); base != nil {
			s.bases = append(s.bases, base)
		}
	}
	return s
}

func (s *CodeService) FetchCode(ctx context.Context, codeURL string) (string, error) {
	codeURL = strings.TrimSpace(codeURL)
	if codeURL == "" {
		return "", appErr.New(appErr.ErrInvalid, "Code URL is required")
	}
	u, err := fetcher.ParseURL(codeURL)
	if err != nil {
		return "", err
	}
	if !s.allowed(u) {
		return "", appErr.New(appErr.ErrInvalid, "Code URL does not point to a stored template")
	}
	return s.fetcher.Fetch(ctx, codeURL)
}

func (s *CodeService) Evict(url string) {
	s.fetcher.Evict(url)
}

func (s *CodeService) allowed(u *url.URL) bool {
	if u.User != nil {
		return false
	}
	p := path.Clean("/" + u.Path)
	for _, base := range s.bases {
		if !strings.EqualFold(u.Scheme, base.Scheme) || !strings.EqualFold(u.Host, base.Host) {
			continue
		}
		if strings.HasPrefix(p, base.Path) {
			return true
		}
	}
	return false
}

// parseBlobBase normalises a base so its path always ends with "/".
func parseBlobBase(raw string) *url.URL {
	u, err := fetcher.ParseURL(raw)
	if err != nil {
		return nil
	}
	p := path.Clean("/" + u.Path)
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return &url.URL{Scheme: strings.ToLower(u.Scheme), Host: strings.ToLower(u.Host), Path: p}
}
