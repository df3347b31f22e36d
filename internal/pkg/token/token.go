// Package token mints opaque bearer values that are only ever compared, never
// parsed.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const opaqueBytes = 32

// NewOpaque returns 256 random bits as unpadded base64url, safe in JSON bodies
// and URLs without escaping.
func NewOpaque() (string, error) {
	b := make([]byte, opaqueBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate opaque token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
