package oauth

import (
	"context"
	"net/url"
	"strings"

	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
)

var googleEndpoints = Endpoints{
	AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
	UserURL:  "https://openidconnect.googleapis.com/v1/userinfo",
}

type googleProvider struct {
	cfg ProviderArgs
}

func (g *googleProvider) Name() string {
	return "google"
}

func (g *googleProvider) AuthURL(state string) (string, error) {
	if g.cfg.Config.ClientID == "" || g.cfg.Config.RedirectURL == "" {
		return "", appErr.New(appErr.ErrInvalid, "google login is not configured")
	}
	params := url.Values{}
	params.Set("client_id", g.cfg.Config.ClientID)
	params.Set("redirect_uri", g.cfg.Config.RedirectURL)
	params.Set("scope", strings.Join(g.cfg.Config.Scopes, " "))
	params.Set("state", state)
	params.Set("response_type", "code")
	return g.cfg.Endpoints.AuthURL + "?" + params.Encode(), nil
}

func (g *googleProvider) ExchangeCode(ctx context.Context, code string) (*Profile, error) {
	if g.cfg.Config.ClientID == "" || g.cfg.Config.ClientSecret == "" || g.cfg.Config.RedirectURL == "" {
		return nil, appErr.New(appErr.ErrInvalid, "google login is not configured")
	}
	form := url.Values{}
	form.Set("code", code)
	form.Set("client_id", g.cfg.Config.ClientID)
	form.Set("client_secret", g.cfg.Config.ClientSecret)
	form.Set("redirect_uri", g.cfg.Config.RedirectURL)
	form.Set("grant_type", "authorization_code")
	accessToken, err := exchangeToken(ctx, g.cfg.Client, "google", g.cfg.Endpoints.TokenURL, form)
	if err != nil {
		return nil, err
	}
	var user googleUserResponse
	if err := getJSON(ctx, g.cfg.Client, "google userinfo", g.cfg.Endpoints.UserURL, accessToken, "", &user); err != nil {
		return nil, err
	}
	if user.Sub == "" {
		return nil, appErr.New(appErr.ErrInvalid, "google returned no subject")
	}
	return &Profile{
		Provider:       "google",
		ProviderUserID: user.Sub,
		Email:          strings.TrimSpace(user.Email),
		Name:           user.Name,
		AvatarURL:      user.Picture,
	}, nil
}

type googleUserResponse struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func newGoogleProvider(args interface{}) (Provider, error) {
	cfg, err := decodeProviderArgs(args, googleEndpoints, []string{"openid", "email", "profile"})
	if err != nil {
		return nil, err
	}
	return &googleProvider{cfg: cfg}, nil
}

func init() {
	Register("google", newGoogleProvider)
}
