package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/codeman/internal/codecache"
	"github.com/xxxsen/codeman/internal/config"
	"github.com/xxxsen/codeman/internal/fetcher"
	"github.com/xxxsen/codeman/internal/filestore"
	"github.com/xxxsen/codeman/internal/handler"
	"github.com/xxxsen/codeman/internal/middleware"
	"github.com/xxxsen/codeman/internal/oauth"
	"github.com/xxxsen/codeman/internal/repo"
	"github.com/xxxsen/codeman/internal/service"
)

var testSecret = []byte("handler-test-secret")

type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) AuthURL(state string) (string, error) {
	return "https://provider.test/authorize?state=" + url.QueryEscape(state), nil
}

func (stubProvider) ExchangeCode(ctx context.Context, code string) (*oauth.Profile, error) {
	return &oauth.Profile{Provider: "stub", ProviderUserID: "99", Name: "Stub User", Email: "stub@example.com"}, nil
}

type testOptions struct {
	requireAuth bool
}

type testEnv struct {
	handler http.Handler
}

func setupRouter(t *testing.T, opts testOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir":        t.TempDir(),
			"public_url": srv.URL + "/api/files",
		},
	})
	require.NoError(t, err)

	templates := repo.NewMemoryTemplateRepo()
	codeService := service.NewCodeService(codecache.WrapLruCacheToFetcher(fetcher.NewHTTPFetcher(srv.Client(), 2*time.Second), 0, 0), store.URL(""))
	templateService := service.NewTemplateService(templates, store, codeService)
	shareService := service.NewShareService(templates, testSecret, "")
	identityService := service.NewIdentityService(testSecret, time.Hour, map[string]oauth.Provider{"stub": stubProvider{}})

	deps := handler.RouterDeps{
		Templates:            handler.NewTemplateHandler(templateService),
		Shares:               handler.NewShareHandler(shareService),
		Code:                 handler.NewCodeHandler(codeService),
		Files:                handler.NewFileHandler(store),
		OAuth:                handler.NewOAuthHandler(identityService),
		JWTSecret:            testSecret,
		RequireAuthForWrites: opts.requireAuth,
	}
	engine, err := webapi.NewEngine(
		"/api",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	env.handler = engine
	return env
}

type apiResponse struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	Code        json.RawMessage `json:"code"`
	Template    *templateView   `json:"template"`
	Templates   []templateView  `json:"templates"`
	ShareLink   string          `json:"shareLink"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	AccessToken string          `json:"accessToken"`
	User        json.RawMessage `json:"user"`
}

type templateView struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CodeURL     string   `json:"codeurl"`
	Language    string   `json:"language"`
}

// codeText decodes the "code" field of a successful proxy fetch.
func (r apiResponse) codeText(t *testing.T) string {
	t.Helper()
	var text string
	require.NoError(t, json.Unmarshal(r.Code, &text))
	return text
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	var out apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return e.do(t, req)
}

type formFile struct {
	name    string
	content string
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, file *formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		part, err := mw.CreateFormFile("file", file.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(file.content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (e *testEnv) createTemplate(t *testing.T, fields map[string]string) templateView {
	t.Helper()
	w, out := e.do(t, multipartRequest(t, http.MethodPost, "/api/templates", fields, nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.True(t, out.Success)
	require.NotNil(t, out.Template)
	return *out.Template
}

func defaultFields() map[string]string {
	return map[string]string{
		"title":       "Hello",
		"description": "says hello",
		"tags":        "demo.python",
		"code":        "def f(): pass",
	}
}
