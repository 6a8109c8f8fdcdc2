package auth_test

import (
	"testing"
	"time"

	auth "github.com/crittr/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestSignInTokenState(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		token *auth.SignInToken
		want  auth.TokenState
	}{
		{
			name:  "nil token is unissued",
			token: nil,
			want:  auth.TokenStateUnissued,
		},
		{
			name:  "empty value is unissued",
			token: &auth.SignInToken{},
			want:  auth.TokenStateUnissued,
		},
		{
			name: "unused and unexpired is pending",
			token: &auth.SignInToken{
				Value:     "tok",
				ExpiresAt: now.Add(15 * time.Minute),
			},
			want: auth.TokenStatePending,
		},
		{
			name: "used is consumed",
			token: &auth.SignInToken{
				Value:     "tok",
				Used:      true,
				ExpiresAt: now.Add(15 * time.Minute),
			},
			want: auth.TokenStateConsumed,
		},
		{
			name: "past expiry is expired",
			token: &auth.SignInToken{
				Value:     "tok",
				ExpiresAt: now.Add(-time.Minute),
			},
			want: auth.TokenStateExpired,
		},
		{
			name: "exactly at expiry is expired",
			token: &auth.SignInToken{
				Value:     "tok",
				ExpiresAt: now,
			},
			want: auth.TokenStateExpired,
		},
		{
			name: "consumed wins when also expired",
			token: &auth.SignInToken{
				Value:     "tok",
				Used:      true,
				ExpiresAt: now.Add(-time.Minute),
			},
			want: auth.TokenStateConsumed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.State(now))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@example.com", auth.NormalizeEmail("  A@Example.COM  "))
	assert.Equal(t, "", auth.NormalizeEmail("   "))
}

func TestDisplayNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane.doe@example.com", "Jane Doe"},
		{"ADMIN@example.com", "Admin"},
		{"pepe_rone@example.com", "Pepe Rone"},
		{"a-b+c@example.com", "A B C"},
		{"plain@example.com", "Plain"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, auth.DisplayNameFromEmail(tt.email))
		})
	}
}
