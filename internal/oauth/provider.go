package oauth

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Profile is the identity a provider vouches for after a successful code exchange.
type Profile struct {
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
	AvatarURL      string
}

// Subject is the stable "<provider>:<id>" identifier, empty when either half is missing.
func (p *Profile) Subject() string {
	if p == nil || p.Provider == "" || p.ProviderUserID == "" {
		return ""
	}
	return p.Provider + ":" + p.ProviderUserID
}

type Provider interface {
	Name() string
	AuthURL(state string) (string, error)
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
}

type ProviderFactory func(args interface{}) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderFactory{}
)

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func Register(name string, factory ProviderFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (Provider, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("oauth provider is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported oauth provider: %s", name)
	}
	return factory(args)
}
