package auth

import "time"

const (
	// DefaultTokenTTL is the window a sign-in token stays redeemable
	DefaultTokenTTL = 15 * time.Minute
	// DefaultSessionDuration is the lifetime of minted session tokens
	DefaultSessionDuration = 24 * time.Hour
	// DefaultContextKey is where middleware stores the decoded session
	DefaultContextKey = "user"
	// DefaultSigningMethod is the JWT signing method for session tokens
	DefaultSigningMethod = "HS256"
)

// SimpleConfig is a plain-struct Config implementation with sane defaults.
type SimpleConfig struct {
	FrontendURL     string
	TokenTTL        time.Duration
	SigningKey      string
	SigningMethod   string
	ContextKey      string
	SessionDuration time.Duration
	Issuer          string
	Audience        []string
}

var _ Config = &SimpleConfig{}

func (c *SimpleConfig) GetFrontendURL() string { return c.FrontendURL }

func (c *SimpleConfig) GetTokenTTL() time.Duration {
	if c.TokenTTL == 0 {
		return DefaultTokenTTL
	}
	return c.TokenTTL
}

func (c *SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c *SimpleConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return DefaultSigningMethod
	}
	return c.SigningMethod
}

func (c *SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return DefaultContextKey
	}
	return c.ContextKey
}

func (c *SimpleConfig) GetSessionDuration() time.Duration {
	if c.SessionDuration == 0 {
		return DefaultSessionDuration
	}
	return c.SessionDuration
}

func (c *SimpleConfig) GetIssuer() string { return c.Issuer }

func (c *SimpleConfig) GetAudience() []string { return c.Audience }
