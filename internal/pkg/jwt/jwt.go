package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var ErrExpired = errors.New("token expired")

// Claims identify an authenticated user; Subject carries "<provider>:<provider id>".
type Claims struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	jwtlib.RegisteredClaims
}

type ShareClaims struct {
	TemplateID string `json:"templateId"`
	jwtlib.RegisteredClaims
}

func GenerateToken(subject string, claims Claims, secret []byte, now time.Time, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = jwtlib.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwtlib.NewNumericDate(now),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	if err := parse(tokenString, claims, secret, time.Now); err != nil {
		return nil, err
	}
	return claims, nil
}

// GenerateShareToken signs {templateId} with iat=now and exp=now+ttl. The caller is
// expected to pass a time already truncated to the token precision.
func GenerateShareToken(templateID string, secret []byte, now time.Time, ttl time.Duration) (string, error) {
	claims := ShareClaims{
		TemplateID: templateID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseShareToken verifies signature and expiry against now(). Expiry is reported as
// ErrExpired, every other failure as a generic error.
func ParseShareToken(tokenString string, secret []byte, now func() time.Time) (*ShareClaims, error) {
	claims := &ShareClaims{}
	if err := parse(tokenString, claims, secret, now); err != nil {
		return nil, err
	}
	if claims.TemplateID == "" {
		return nil, errors.New("missing template id")
	}
	return claims, nil
}

func parse(tokenString string, claims jwtlib.Claims, secret []byte, now func() time.Time) error {
	token, err := jwtlib.ParseWithClaims(tokenString, claims, func(token *jwtlib.Token) (interface{}, error) {
		if token.Method.Alg() != jwtlib.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwtlib.WithTimeFunc(now), jwtlib.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return ErrExpired
		}
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
