package auth

import (
	"crypto/rand"
	"encoding/base64"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// TokenEntropyBytes is the amount of randomness behind each token value;
// 32 bytes gives 256 bits, unique by construction without checking the
// store.
const TokenEntropyBytes = 32

// NewTokenValue generates an opaque, URL-safe token value.
func NewTokenValue() (string, error) {
	b := make([]byte, TokenEntropyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate sign-in token value")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// BuildMagicLink embeds the raw token as a query parameter on the
// configured front-end base URL. The front end posts it back to
// /auth/verify-magic-link.
func BuildMagicLink(frontendURL, token string) string {
	base := strings.TrimSuffix(frontendURL, "/")
	return base + "/auth/verify?token=" + url.QueryEscape(token)
}
