package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestShareTokenExpiryBoundary(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := GenerateShareToken("tpl-1", testSecret, issued, 10*time.Minute)
	require.NoError(t, err)

	at := func(ts time.Time) func() time.Time { return func() time.Time { return ts } }

	claims, err := ParseShareToken(token, testSecret, at(issued))
	require.NoError(t, err)
	require.Equal(t, "tpl-1", claims.TemplateID)
	require.Equal(t, issued.Add(10*time.Minute).Unix(), claims.ExpiresAt.Unix())

	_, err = ParseShareToken(token, testSecret, at(issued.Add(10*time.Minute-time.Second)))
	require.NoError(t, err)

	_, err = ParseShareToken(token, testSecret, at(issued.Add(10*time.Minute)))
	require.ErrorIs(t, err, ErrExpired)

	_, err = ParseShareToken(token, testSecret, at(issued.Add(time.Hour)))
	require.ErrorIs(t, err, ErrExpired)
}

func TestShareTokenTamperedIsNotExpired(t *testing.T) {
	issued := time.Now().Truncate(time.Second)
	token, err := GenerateShareToken("tpl-1", testSecret, issued, 10*time.Minute)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = ParseShareToken(tampered, testSecret, time.Now)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrExpired))

	_, err = ParseShareToken(token, []byte("other-secret"), time.Now)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrExpired))
}

func TestIdentityTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("github:42", Claims{Name: "octo", Email: "octo@example.com"}, testSecret, time.Now(), time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	require.Equal(t, "github:42", claims.Subject)
	require.Equal(t, "octo@example.com", claims.Email)
}
