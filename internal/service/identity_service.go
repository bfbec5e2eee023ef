package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/codeman/internal/model"
	"github.com/xxxsen/codeman/internal/oauth"
	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
	"github.com/xxxsen/codeman/internal/pkg/jwt"
)

// IdentityService turns a provider-verified profile into a signed identity token.
// No user records are kept; the token itself is the session.
type IdentityService struct {
	providers map[string]oauth.Provider
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewIdentityService(secret []byte, ttl time.Duration, providers map[string]oauth.Provider) *IdentityService {
	if providers == nil {
		providers = map[string]oauth.Provider{}
	}
	return &IdentityService{providers: providers, secret: secret, ttl: ttl, now: time.Now}
}

func (s *IdentityService) GetAuthURL(provider, state string) (string, error) {
	impl := s.providers[strings.ToLower(provider)]
	if impl == nil {
		return "", appErr.New(appErr.ErrNotFound, "Unknown login provider")
	}
	return impl.AuthURL(state)
}

func (s *IdentityService) Login(ctx context.Context, provider, code string) (*model.IdentityToken, error) {
	impl := s.providers[strings.ToLower(provider)]
	if impl == nil {
		return nil, appErr.New(appErr.ErrNotFound, "Unknown login provider")
	}
	if strings.TrimSpace(code) == "" {
		return nil, appErr.New(appErr.ErrInvalid, "Authorization code is required")
	}
	profile, err := impl.ExchangeCode(ctx, code)
	if err != nil {
		logutil.GetLogger(ctx).Error("oauth code exchange failed", zap.String("provider", provider), zap.Error(err))
		return nil, appErr.Wrap(appErr.ErrUnauthorized, "Authentication failed", err)
	}
	return s.IssueSignedIdentity(profile)
}

// IssueSignedIdentity signs {sub: "<provider>:<id>", name, email, avatarUrl}.
func (s *IdentityService) IssueSignedIdentity(profile *oauth.Profile) (*model.IdentityToken, error) {
	subject := profile.Subject()
	if subject == "" {
		return nil, appErr.New(appErr.ErrInvalid, "Incomplete identity profile")
	}
	token, err := jwt.GenerateToken(subject, jwt.Claims{
		Name:      profile.Name,
		Email:     profile.Email,
		AvatarURL: profile.AvatarURL,
	}, s.secret, s.now(), s.ttl)
	if err != nil {
		return nil, appErr.Wrap(appErr.ErrInternal, "failed to sign identity", err)
	}
	return &model.IdentityToken{
		AccessToken: token,
		User: model.IdentityUser{
			ID:        subject,
			Name:      profile.Name,
			Email:     profile.Email,
			AvatarURL: profile.AvatarURL,
			Provider:  profile.Provider,
		},
	}, nil
}
