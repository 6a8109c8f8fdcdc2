package auth

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokenState describes where a sign-in token sits in its lifecycle
type TokenState = string

const (
	// TokenStateUnissued means no such token was ever stored
	TokenStateUnissued TokenState = "unissued"
	// TokenStatePending is an unused, unexpired token
	TokenStatePending TokenState = "pending"
	// TokenStateConsumed is a token redeemed exactly once; terminal
	TokenStateConsumed TokenState = "consumed"
	// TokenStateExpired is a token past its expiry; terminal
	TokenStateExpired TokenState = "expired"
)

// SignInToken is a single-use magic-link token
type SignInToken struct {
	bun.BaseModel `bun:"table:sign_in_tokens,alias:tok"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Value         string     `bun:"value,notnull,unique" json:"-"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	Used          bool       `bun:"used,notnull" json:"used,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// State reports the token's lifecycle state at the given instant.
// Consumed and Expired are terminal; Consumed wins if both apply.
func (t *SignInToken) State(now time.Time) TokenState {
	switch {
	case t == nil || t.Value == "":
		return TokenStateUnissued
	case t.Used:
		return TokenStateConsumed
	case !now.Before(t.ExpiresAt):
		return TokenStateExpired
	default:
		return TokenStatePending
	}
}

// User is the identity record provisioned on first successful sign-in.
// The auth core never deletes users; removal is an admin-gated operation
// owned by the host application.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	DisplayName   string     `bun:"display_name,notnull" json:"display_name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// AdminGrant is an email-keyed capability conferring administrator
// privilege, kept separate from the User record so grants can be issued
// and revoked without touching identities.
type AdminGrant struct {
	bun.BaseModel `bun:"table:admin_grants,alias:adm"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Name          string     `bun:"name" json:"name,omitempty"`
	Active        bool       `bun:"is_active,notnull" json:"is_active,omitempty"`
	LastAccessAt  *time.Time `bun:"last_access_at,nullzero" json:"last_access_at,omitempty"`
	AccessCount   int        `bun:"access_count,notnull,default:0" json:"access_count,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NormalizeEmail lower-cases and trims an address. Every email entering the
// core goes through this so lookups and uniqueness agree on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayNameFromEmail derives a readable name from the local part of an
// address: separators become spaces and each word is title-cased, e.g.
// "jane.doe@example.com" -> "Jane Doe".
func DisplayNameFromEmail(email string) string {
	local := NormalizeEmail(email)
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}

	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})

	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}

func prepareTokenDefaults(record *SignInToken) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Email = NormalizeEmail(record.Email)
}

func prepareGrantDefaults(record *AdminGrant) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Email = NormalizeEmail(record.Email)
	if record.Name == "" {
		record.Name = DisplayNameFromEmail(record.Email)
	}
}
