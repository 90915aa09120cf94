package db

import (
	"testing"

	"tmods/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveToken(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SaveToken(domain.ProviderCurseForge, "  test-api-key-123\n"))

	token, err := db.GetToken(domain.ProviderCurseForge)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, domain.ProviderCurseForge, token.Provider)
	assert.Equal(t, "test-api-key-123", token.APIKey, "whitespace is trimmed")
	assert.False(t, token.UpdatedAt.IsZero())
}

func TestSaveToken_Replaces(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SaveToken(domain.ProviderCurseForge, "old-key"))
	require.NoError(t, db.SaveToken(domain.ProviderCurseForge, "new-key"))

	token, err := db.GetToken(domain.ProviderCurseForge)
	require.NoError(t, err)
	assert.Equal(t, "new-key", token.APIKey)
}

func TestSaveToken_Empty(t *testing.T) {
	db := setupTestDB(t)

	err := db.SaveToken(domain.ProviderCurseForge, "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	token, err := db.GetToken(domain.ProviderCurseForge)
	require.NoError(t, err)
	assert.Nil(t, token)
}

func TestGetToken_NotFound(t *testing.T) {
	db := setupTestDB(t)

	token, err := db.GetToken(domain.ProviderModrinth)
	assert.NoError(t, err)
	assert.Nil(t, token)
}

func TestDeleteToken(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SaveToken(domain.ProviderCurseForge, "test-key"))
	require.NoError(t, db.DeleteToken(domain.ProviderCurseForge))

	token, err := db.GetToken(domain.ProviderCurseForge)
	assert.NoError(t, err)
	assert.Nil(t, token)

	// Deleting again is fine
	assert.NoError(t, db.DeleteToken(domain.ProviderCurseForge))
}

func TestTokens_PerProvider(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SaveToken(domain.ProviderModrinth, "mr-key"))
	require.NoError(t, db.SaveToken(domain.ProviderCurseForge, "cf-key"))
	require.NoError(t, db.DeleteToken(domain.ProviderModrinth))

	token, err := db.GetToken(domain.ProviderCurseForge)
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "cf-key", token.APIKey)
}

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}
