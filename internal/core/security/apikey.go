package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const apiKeyBytes = 30

// NewAPIKey returns a random hex encoded key (60 characters).
func NewAPIKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
