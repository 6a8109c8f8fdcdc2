package auth_test

import (
	"context"
	"testing"

	auth "github.com/crittr/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrProvision(t *testing.T) {
	db, repo := setupTestDB(t)
	ctx := context.Background()

	user, created, err := repo.Users().GetOrProvision(ctx, " Jane.Doe@Example.com ")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "jane.doe@example.com", user.Email)
	assert.Equal(t, "Jane Doe", user.DisplayName)
	assert.NotEmpty(t, user.ID)

	// idempotent: same email, same identity, no duplicate
	again, created, err := repo.Users().GetOrProvision(ctx, "jane.doe@example.com")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)

	count, err := db.NewSelect().Model((*auth.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetOrProvisionDeterministicID(t *testing.T) {
	_, repoA := setupTestDB(t)
	_, repoB := setupTestDB(t)
	ctx := context.Background()

	userA, _, err := repoA.Users().GetOrProvision(ctx, "same@example.com")
	require.NoError(t, err)

	userB, _, err := repoB.Users().GetOrProvision(ctx, "same@example.com")
	require.NoError(t, err)

	assert.Equal(t, userA.ID, userB.ID, "id derives from the normalized email")
}

func TestUserProviderFindOrCreate(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	provider := auth.NewUserProvider(repo.Users())

	identity, err := provider.FindOrCreate(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", identity.Email())
	assert.Equal(t, "A", identity.DisplayName())

	found, err := provider.FindIdentityByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), found.ID())

	_, err = provider.FindIdentityByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
}
