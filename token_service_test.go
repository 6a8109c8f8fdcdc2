package auth_test

import (
	"testing"
	"time"

	auth "github.com/crittr/go-auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIdentity() auth.Identity {
	return auth.NewIdentityFromUser(&auth.User{
		ID:          uuid.New(),
		Email:       "jane.doe@example.com",
		DisplayName: "Jane Doe",
	})
}

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := auth.NewTokenService(testConfig(), nil)
	identity := testIdentity()

	signed, err := svc.Generate(identity)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := svc.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), claims.Subject)
	assert.Equal(t, "jane.doe@example.com", claims.Email)
	assert.Equal(t, "Jane Doe", claims.DisplayName)
	assert.Equal(t, "crittr-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenServiceNilIdentity(t *testing.T) {
	svc := auth.NewTokenService(testConfig(), nil)

	_, err := svc.Generate(nil)
	require.Error(t, err)
}

func TestTokenServiceExpired(t *testing.T) {
	cfg := testConfig()
	cfg.SessionDuration = -time.Hour

	svc := auth.NewTokenService(cfg, nil)

	signed, err := svc.Generate(testIdentity())
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrSessionExpired)
}

func TestTokenServiceWrongKey(t *testing.T) {
	svc := auth.NewTokenService(testConfig(), nil)

	signed, err := svc.Generate(testIdentity())
	require.NoError(t, err)

	other := testConfig()
	other.SigningKey = "a-different-signing-key"

	_, err = auth.NewTokenService(other, nil).Validate(signed)
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrSessionExpired)
}

func TestTokenServiceMalformed(t *testing.T) {
	svc := auth.NewTokenService(testConfig(), nil)

	for _, garbage := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Validate(garbage)
		require.Error(t, err, "token %q must not validate", garbage)
	}
}
