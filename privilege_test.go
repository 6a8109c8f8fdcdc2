package auth_test

import (
	"context"
	"testing"

	auth "github.com/crittr/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAdminActiveGrant(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.AdminGrants().Grant(ctx, "ops@example.com", "Ops Team")
	require.NoError(t, err)

	sink := &capturingSink{}
	verifier := auth.NewPrivilegeVerifier(repo).WithActivitySink(sink)

	grant, err := verifier.RequireAdmin(ctx, "Ops@Example.com")
	require.NoError(t, err)
	require.NotNil(t, grant)
	assert.Equal(t, "ops@example.com", grant.Email)
	assert.Equal(t, 1, grant.AccessCount)
	require.NotNil(t, grant.LastAccessAt)

	grant, err = verifier.RequireAdmin(ctx, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, grant.AccessCount)

	events := sink.byType(auth.ActivityEventAdminAccess)
	require.Len(t, events, 2)
	assert.Equal(t, 2, events[1].Metadata["access_count"])
}

func TestRequireAdminNoGrant(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	sink := &capturingSink{}
	verifier := auth.NewPrivilegeVerifier(repo).WithActivitySink(sink)

	grant, err := verifier.RequireAdmin(ctx, "nobody@example.com")
	require.Error(t, err)
	assert.Nil(t, grant)
	assert.True(t, auth.IsAccessDenied(err))
	assert.Len(t, sink.byType(auth.ActivityEventAdminAccessDenied), 1)
}

func TestRequireAdminRevokedGrant(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.AdminGrants().Grant(ctx, "former@example.com", "Former Admin")
	require.NoError(t, err)
	_, err = repo.AdminGrants().Revoke(ctx, "former@example.com")
	require.NoError(t, err)

	verifier := auth.NewPrivilegeVerifier(repo)

	_, err = verifier.RequireAdmin(ctx, "former@example.com")
	require.Error(t, err)
	assert.True(t, auth.IsAccessDenied(err))

	// a revoked grant reads exactly like a missing one
	assert.Contains(t, err.Error(), auth.AccessDeniedMessage)

	// revoked grants keep their audit fields untouched
	stored, err := repo.AdminGrants().GetByEmail(ctx, "former@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.AccessCount)
}

func TestRequireAdminReinstatedGrant(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	grants := repo.AdminGrants()
	_, err := grants.Grant(ctx, "cycle@example.com", "Cycled")
	require.NoError(t, err)
	_, err = grants.Revoke(ctx, "cycle@example.com")
	require.NoError(t, err)
	_, err = grants.Reinstate(ctx, "cycle@example.com")
	require.NoError(t, err)

	verifier := auth.NewPrivilegeVerifier(repo)

	grant, err := verifier.RequireAdmin(ctx, "cycle@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, grant.AccessCount)
}

func TestRequireAdminCancelledContext(t *testing.T) {
	_, repo := setupTestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	verifier := auth.NewPrivilegeVerifier(repo)

	_, err := verifier.RequireAdmin(ctx, "ops@example.com")
	require.Error(t, err)
	assert.False(t, auth.IsAccessDenied(err))
}
