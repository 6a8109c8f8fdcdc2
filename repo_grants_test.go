package auth_test

import (
	"context"
	"testing"
	"time"

	auth "github.com/crittr/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminGrantsGrant(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	grant, err := repo.AdminGrants().Grant(ctx, "Admin@Example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", grant.Email)
	assert.Equal(t, "Admin", grant.Name, "name defaults to the title-cased local part")
	assert.True(t, grant.Active)
	assert.Equal(t, 0, grant.AccessCount)

	// re-granting the same email updates in place, no duplicate row
	again, err := repo.AdminGrants().Grant(ctx, "admin@example.com", "Caroline Sarkki")
	require.NoError(t, err)
	assert.Equal(t, grant.ID, again.ID)
	assert.Equal(t, "Caroline Sarkki", again.Name)

	grants, err := repo.AdminGrants().List(ctx)
	require.NoError(t, err)
	assert.Len(t, grants, 1)
}

func TestAdminGrantsRevokeAndReinstate(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.AdminGrants().Grant(ctx, "admin@example.com", "")
	require.NoError(t, err)

	revoked, err := repo.AdminGrants().Revoke(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.False(t, revoked.Active)

	// inactive grants never authorize
	_, err = repo.AdminGrants().TouchAccess(ctx, "admin@example.com", time.Now())
	require.Error(t, err)
	assert.True(t, auth.IsAccessDenied(err))

	reinstated, err := repo.AdminGrants().Reinstate(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, reinstated.Active)

	_, err = repo.AdminGrants().TouchAccess(ctx, "admin@example.com", time.Now())
	require.NoError(t, err)

	_, err = repo.AdminGrants().Revoke(ctx, "missing@example.com")
	require.Error(t, err)
}

func TestAdminGrantsTouchAccess(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.AdminGrants().Grant(ctx, "admin@example.com", "")
	require.NoError(t, err)

	first, err := repo.AdminGrants().TouchAccess(ctx, "admin@example.com", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, first.AccessCount)
	require.NotNil(t, first.LastAccessAt)

	second, err := repo.AdminGrants().TouchAccess(ctx, "admin@example.com", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, second.AccessCount)
	require.NotNil(t, second.LastAccessAt)
	assert.False(t, second.LastAccessAt.Before(*first.LastAccessAt))

	_, err = repo.AdminGrants().TouchAccess(ctx, "nobody@example.com", time.Now())
	require.Error(t, err)
	assert.True(t, auth.IsAccessDenied(err))
}
