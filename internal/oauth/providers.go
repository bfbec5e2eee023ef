package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xxxsen/codeman/internal/config"
)

type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Endpoints overrides the provider URLs; empty fields fall back to the public endpoints.
type Endpoints struct {
	AuthURL   string
	TokenURL  string
	UserURL   string
	EmailsURL string
}

type ProviderArgs struct {
	Config    ProviderConfig
	Client    *http.Client
	Endpoints Endpoints
}

func ArgsFromConfig(cfg config.OAuthProviderConfig) ProviderArgs {
	return ProviderArgs{Config: ProviderConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
	}}
}

// BuildProviders creates every provider whose client credentials are configured.
func BuildProviders(cfg config.OAuthConfig) (map[string]Provider, error) {
	out := make(map[string]Provider)
	for name, item := range map[string]config.OAuthProviderConfig{"github": cfg.Github, "google": cfg.Google} {
		if !item.Enabled() {
			continue
		}
		p, err := NewProvider(name, ArgsFromConfig(item))
		if err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}

func decodeProviderArgs(args interface{}, defaults Endpoints, defaultScopes []string) (ProviderArgs, error) {
	var cfg ProviderArgs
	if args != nil {
		v, ok := args.(ProviderArgs)
		if !ok {
			return ProviderArgs{}, fmt.Errorf("unexpected oauth provider args: %T", args)
		}
		cfg = v
	}
	cfg.Config.RedirectURL = strings.TrimSpace(cfg.Config.RedirectURL)
	cfg.Config.ClientID = strings.TrimSpace(cfg.Config.ClientID)
	cfg.Config.ClientSecret = strings.TrimSpace(cfg.Config.ClientSecret)
	if len(cfg.Config.Scopes) == 0 {
		cfg.Config.Scopes = defaultScopes
	}
	if cfg.Endpoints.AuthURL == "" {
		cfg.Endpoints.AuthURL = defaults.AuthURL
	}
	if cfg.Endpoints.TokenURL == "" {
		cfg.Endpoints.TokenURL = defaults.TokenURL
	}
	if cfg.Endpoints.UserURL == "" {
		cfg.Endpoints.UserURL = defaults.UserURL
	}
	if cfg.Endpoints.EmailsURL == "" {
		cfg.Endpoints.EmailsURL = defaults.EmailsURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	return cfg, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func exchangeToken(ctx context.Context, client *http.Client, provider, endpoint string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var out tokenResponse
	if err := doJSON(client, req, provider+" token exchange", &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%s token exchange returned no access token", provider)
	}
	return out.AccessToken, nil
}

func getJSON(ctx context.Context, client *http.Client, what, endpoint, accessToken, accept string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return doJSON(client, req, what, out)
}

func doJSON(client *http.Client, req *http.Request, what string, out interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s failed: %s: %s", what, resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
