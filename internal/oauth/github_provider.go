package oauth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
)

var githubEndpoints = Endpoints{
	AuthURL:   "https://github.com/login/oauth/authorize",
	TokenURL:  "https://github.com/login/oauth/access_token",
	UserURL:   "https://api.github.com/user",
	EmailsURL: "https://api.github.com/user/emails",
}

const githubAccept = "application/vnd.github+json"

type githubProvider struct {
	cfg ProviderArgs
}

func (g *githubProvider) Name() string {
	return "github"
}

func (g *githubProvider) AuthURL(state string) (string, error) {
	if g.cfg.Config.ClientID == "" || g.cfg.Config.RedirectURL == "" {
		return "", appErr.New(appErr.ErrInvalid, "github login is not configured")
	}
	params := url.Values{}
	params.Set("client_id", g.cfg.Config.ClientID)
	params.Set("redirect_uri", g.cfg.Config.RedirectURL)
	params.Set("scope", strings.Join(g.cfg.Config.Scopes, " "))
	params.Set("state", state)
	return g.cfg.Endpoints.AuthURL + "?" + params.Encode(), nil
}

func (g *githubProvider) ExchangeCode(ctx context.Context, code string) (*Profile, error) {
	if g.cfg.Config.ClientID == "" || g.cfg.Config.ClientSecret == "" {
		return nil, appErr.New(appErr.ErrInvalid, "github login is not configured")
	}
	form := url.Values{}
	form.Set("client_id", g.cfg.Config.ClientID)
	form.Set("client_secret", g.cfg.Config.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", g.cfg.Config.RedirectURL)
	accessToken, err := exchangeToken(ctx, g.cfg.Client, "github", g.cfg.Endpoints.TokenURL, form)
	if err != nil {
		return nil, err
	}
	var user githubUserResponse
	if err := getJSON(ctx, g.cfg.Client, "github user request", g.cfg.Endpoints.UserURL, accessToken, githubAccept, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, appErr.New(appErr.ErrInvalid, "github returned no user id")
	}
	email := strings.TrimSpace(user.Email)
	if email == "" {
		// the primary address is private; it is optional for the identity.
		email = g.primaryEmail(ctx, accessToken)
	}
	name := strings.TrimSpace(user.Name)
	if name == "" {
		name = user.Login
	}
	return &Profile{
		Provider:       "github",
		ProviderUserID: fmt.Sprint(user.ID),
		Email:          email,
		Name:           name,
		AvatarURL:      user.AvatarURL,
	}, nil
}

type githubUserResponse struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmailResponse struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (g *githubProvider) primaryEmail(ctx context.Context, accessToken string) string {
	var emails []githubEmailResponse
	if err := getJSON(ctx, g.cfg.Client, "github emails request", g.cfg.Endpoints.EmailsURL, accessToken, githubAccept, &emails); err != nil {
		return ""
	}
	for _, item := range emails {
		if item.Primary && item.Verified {
			return item.Email
		}
	}
	for _, item := range emails {
		if item.Verified {
			return item.Email
		}
	}
	return ""
}

func newGithubProvider(args interface{}) (Provider, error) {
	cfg, err := decodeProviderArgs(args, githubEndpoints, []string{"read:user", "user:email"})
	if err != nil {
		return nil, err
	}
	return &githubProvider{cfg: cfg}, nil
}

func init() {
	Register("github", newGithubProvider)
}
