package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
)

func TestHTTPFetcherReturnsBodyVerbatim(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		_, _ = w.Write([]byte("  def f(): pass\n"))
	}))
	defer srv.Close()

	body, err := NewHTTPFetcher(srv.Client(), time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "  def f(): pass\n", body)
	require.Equal(t, acceptHeader, gotHeaders.Get("Accept"))
	require.Equal(t, "CodeMan-App/1.0", gotHeaders.Get("User-Agent"))
	require.Equal(t, "no-cache", gotHeaders.Get("Cache-Control"))
}

func TestHTTPFetcherFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, body: "missing", wantErr: appErr.ErrUpstream},
		{name: "empty", status: http.StatusOK, body: " \n\t", wantErr: appErr.ErrEmptyContent},
		{name: "doctype", status: http.StatusOK, body: "<!DOCTYPE html><p>x</p>", wantErr: appErr.ErrUpstream},
		{name: "html lower", status: http.StatusOK, body: "\n<html><body/></html>", wantErr: appErr.ErrUpstream},
		{name: "error title", status: http.StatusOK, body: "x <title>Error</title>", wantErr: appErr.ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			_, err := NewHTTPFetcher(srv.Client(), time.Second).Fetch(context.Background(), srv.URL)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPFetcherKeepsUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	_, err := NewHTTPFetcher(srv.Client(), time.Second).Fetch(context.Background(), srv.URL)
	status, ok := appErr.UpstreamStatus(err)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, status)
}

func TestHTTPFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTPFetcher(srv.Client(), 50*time.Millisecond).Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, appErr.ErrTimeout)
}

func TestHTTPFetcherTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", MaxBodySize+10)))
	}))
	defer srv.Close()
	_, err := NewHTTPFetcher(srv.Client(), 5*time.Second).Fetch(context.Background(), srv.URL)
	require.True(t, errors.Is(err, appErr.ErrUpstream))
}

func TestLooksLikeHTML(t *testing.T) {
	require.True(t, LooksLikeHTML("  <!doctype html>"))
	require.True(t, LooksLikeHTML("<HTML>"))
	require.False(t, LooksLikeHTML("const html = '<html>'"))
}

func TestParseURL(t *testing.T) {
	for _, raw := range []string{"http://blobs.test/a.py", " https://blobs.test:9000/code/a.py "} {
		_, err := ParseURL(raw)
		require.NoError(t, err, raw)
	}
	for _, raw := range []string{"not a url", "/code/a.py", "ftp://blobs.test/a.py", "http://", "mailto:a@b.c", "http://%zz"} {
		_, err := ParseURL(raw)
		require.ErrorIs(t, err, appErr.ErrInvalid, raw)
	}
}

func TestHTTPFetcherRejectsMalformedURL(t *testing.T) {
	_, err := NewHTTPFetcher(nil, time.Second).Fetch(context.Background(), "not a url")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
