package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
)

const (
	DefaultTimeout = 10 * time.Second
	MaxBodySize    = 10 * 1024 * 1024

	acceptHeader = "text/plain, text/*, application/octet-stream, */*"
	userAgent    = "CodeMan-App/1.0"
)

type IFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

func NewHTTPFetcher(client *http.Client, timeout time.Duration) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{client: client, timeout: timeout}
}

// ParseURL accepts absolute http(s) URLs with a host and rejects anything else as ErrInvalid.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrInvalid, "Invalid code URL", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" || u.Opaque != "" {
		return nil, appErr.New(appErr.ErrInvalid, "Invalid code URL")
	}
	return u, nil
}

// Fetch downloads the body at rawURL as text. Error pages served with a 2xx status are
// rejected the same way as non-2xx responses.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if _, err := ParseURL(rawURL); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", appErr.Wrap(appErr.ErrInvalid, "Invalid code URL", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", appErr.Wrap(appErr.ErrTimeout, "Request timeout while fetching code", err)
		}
		return "", appErr.Wrap(appErr.ErrUpstream, "Failed to fetch code", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logutil.GetLogger(ctx).Warn("code fetch returned non-2xx",
			zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
		return "", appErr.Upstream(resp.StatusCode, fmt.Sprintf("Failed to fetch code: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", appErr.Wrap(appErr.ErrTimeout, "Request timeout while fetching code", err)
		}
		return "", appErr.Wrap(appErr.ErrUpstream, "Failed to read code", err)
	}
	if len(data) > MaxBodySize {
		return "", appErr.New(appErr.ErrUpstream, "Code file is too large")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", appErr.New(appErr.ErrEmptyContent, "Code file is empty")
	}
	if LooksLikeHTML(string(data)) {
		return "", appErr.New(appErr.ErrUpstream, "Received HTML error page instead of code")
	}
	return string(data), nil
}

func LooksLikeHTML(body string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(body))
	return strings.HasPrefix(trimmed, "<!doctype") ||
		strings.HasPrefix(trimmed, "<html") ||
		strings.Contains(body, "<title>Error</title>")
}
