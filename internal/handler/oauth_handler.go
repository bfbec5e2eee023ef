package handler

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/codeman/internal/pkg/errcode"
	"github.com/xxxsen/codeman/internal/pkg/response"
	"github.com/xxxsen/codeman/internal/service"
)

const oauthStateTTL = 10 * time.Minute

type OAuthHandler struct {
	identity   *service.IdentityService
	stateStore *oauthStateStore
}

func NewOAuthHandler(identity *service.IdentityService) *OAuthHandler {
	return &OAuthHandler{identity: identity, stateStore: newOAuthStateStore(time.Now)}
}

func (h *OAuthHandler) Login(c *gin.Context) {
	provider := strings.ToLower(c.Param("provider"))
	state := h.stateStore.Create(provider)
	authURL, err := h.identity.GetAuthURL(provider, state)
	if err != nil {
		h.stateStore.Consume(state)
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

func (h *OAuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		badRequest(c, "Missing code or state")
		return
	}
	provider, ok := h.stateStore.Consume(state)
	if !ok || provider != strings.ToLower(c.Param("provider")) {
		response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "Invalid or expired login state")
		return
	}
	identity, err := h.identity.Login(c.Request.Context(), provider, code)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"accessToken": identity.AccessToken, "user": identity.User})
}

type oauthState struct {
	Provider  string
	ExpiresAt time.Time
}

// oauthStateStore holds one-shot login states. A state is removed on first use.
type oauthStateStore struct {
	mu    sync.Mutex
	items map[string]oauthState
	now   func() time.Time
}

func newOAuthStateStore(now func() time.Time) *oauthStateStore {
	return &oauthStateStore{items: make(map[string]oauthState), now: now}
}

func (s *oauthStateStore) Create(provider string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()
	state := service.NewState()
	s.items[state] = oauthState{Provider: provider, ExpiresAt: s.now().Add(oauthStateTTL)}
	return state
}

func (s *oauthStateStore) Consume(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[state]
	if !ok {
		return "", false
	}
	delete(s.items, state)
	if !s.now().Before(item.ExpiresAt) {
		return "", false
	}
	return item.Provider, true
}

func (s *oauthStateStore) cleanupLocked() {
	now := s.now()
	for key, item := range s.items {
		if !now.Before(item.ExpiresAt) {
			delete(s.items, key)
		}
	}
}
