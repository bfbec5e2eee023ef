package handler_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/codeman/internal/pkg/jwt"
)

func TestShareLinkRoundTrip(t *testing.T) {
	env := setupRouter(t, testOptions{})
	tpl := env.createTemplate(t, defaultFields())

	before := time.Now().Truncate(time.Second)
	w, out := env.doJSON(t, http.MethodPost, "/api/templates/share", gin.H{"templateId": tpl.ID},
		"X-Forwarded-Proto", "https", "X-Forwarded-Host", "codeman.example.com")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.True(t, strings.HasPrefix(out.ShareLink, "https://codeman.example.com/share/"), out.ShareLink)
	require.False(t, out.ExpiresAt.Before(before.Add(10*time.Minute)))
	require.False(t, out.ExpiresAt.After(time.Now().Add(10*time.Minute)))

	token := strings.TrimPrefix(out.ShareLink, "https://codeman.example.com/share/")
	w, out = env.do(t, httptest.NewRequest(http.MethodGet, "/api/templates/share?token="+url.QueryEscape(token), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, tpl.ID, out.Template.ID)
}

func TestShareLinkErrors(t *testing.T) {
	env := setupRouter(t, testOptions{})

	w, out := env.doJSON(t, http.MethodPost, "/api/templates/share", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, out.Success)

	w, _ = env.doJSON(t, http.MethodPost, "/api/templates/share", gin.H{"templateId": "missing"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, httptest.NewRequest(http.MethodGet, "/api/templates/share", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, out = env.do(t, httptest.NewRequest(http.MethodGet, "/api/templates/share?token=garbage", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Invalid share link", out.Message)
}

func TestExpiredShareLinkIsGone(t *testing.T) {
	env := setupRouter(t, testOptions{})
	tpl := env.createTemplate(t, defaultFields())

	issued := time.Now().Add(-11 * time.Minute).Truncate(time.Second)
	token, err := jwt.GenerateShareToken(tpl.ID, testSecret, issued, 10*time.Minute)
	require.NoError(t, err)

	w, out := env.do(t, httptest.NewRequest(http.MethodGet, "/api/templates/share?token="+token, nil))
	require.Equal(t, http.StatusGone, w.Code)
	require.Equal(t, "Share link has expired", out.Message)
}

func TestFetchCodeThroughProxy(t *testing.T) {
	env := setupRouter(t, testOptions{})
	tpl := env.createTemplate(t, defaultFields())

	w, out := env.doJSON(t, http.MethodPost, "/api/templates/code", gin.H{"codeUrl": tpl.CodeURL})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "def f(): pass", out.codeText(t))

	w, out = env.doJSON(t, http.MethodPost, "/api/templates/code", gin.H{"codeUrl": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, out.Success)

	w, out = env.doJSON(t, http.MethodPost, "/api/templates/code", gin.H{"codeUrl": "http://169.254.169.254/latest/meta-data/"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.False(t, out.Success)

	w, _ = env.doJSON(t, http.MethodPost, "/api/templates/code", gin.H{"codeUrl": "not a url"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
