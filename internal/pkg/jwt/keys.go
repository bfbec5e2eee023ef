package jwt

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	PurposeShare    = "codeman/share"
	PurposeIdentity = "codeman/identity"

	derivedKeySize = 32
)

// DeriveKey expands the configured secret into a signing key bound to purpose, so a
// token minted for one purpose never verifies under another.
func DeriveKey(secret []byte, purpose string) []byte {
	key := make([]byte, derivedKeySize)
	r := hkdf.New(sha256.New, secret, nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		panic("hkdf: " + err.Error())
	}
	return key
}
