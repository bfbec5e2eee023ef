package service

import (
	"crypto/rand"
	"encoding/hex"
)

// NewState returns a random token for the oauth state parameter.
func NewState() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
