package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SessionClaims is the payload of the short-lived bearer token minted
// after a magic link is verified.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
}

// TokenService mints and validates session tokens. This is how a verified
// identity is carried across requests once the single-use sign-in token is
// spent.
type TokenService interface {
	Generate(identity Identity) (string, error)
	Validate(tokenString string) (*SessionClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	config Config
	logger Logger
}

var _ TokenService = (*TokenServiceImpl)(nil)

// NewTokenService creates a new TokenService instance
func NewTokenService(config Config, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		config: config,
		logger: logger,
	}
}

// Generate mints a session token for a verified identity
func (ts *TokenServiceImpl) Generate(identity Identity) (string, error) {
	if identity == nil {
		return "", errors.New("identity is required", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.config.GetIssuer(),
			Subject:   identity.ID(),
			Audience:  jwt.ClaimStrings(ts.config.GetAudience()),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.config.GetSessionDuration())),
		},
		Email:       identity.Email(),
		DisplayName: identity.DisplayName(),
	}

	method := jwt.GetSigningMethod(ts.config.GetSigningMethod())
	if method == nil {
		return "", errors.New("unknown signing method", errors.CategoryInternal).
			WithMetadata(map[string]any{"method": ts.config.GetSigningMethod()})
	}

	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString([]byte(ts.config.GetSigningKey()))
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign session token")
	}

	return signed, nil
}

// Validate parses a session token and returns its claims
func (ts *TokenServiceImpl) Validate(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(ts.config.GetSigningKey()), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, errors.Wrap(err, ErrSessionMalformed.Category, ErrSessionMalformed.Message).
			WithTextCode(ErrSessionMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrSessionMalformed
}
