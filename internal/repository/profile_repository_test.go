package repository

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProfileRepository(pool, zerolog.Nop())
	ctx := context.Background()

	missing, err := repo.GetByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := repo.GetOrCreate(ctx, "ada")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotZero(t, created.ID)
	assert.Nil(t, created.DefaultCountry)

	again, err := repo.GetOrCreate(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	created.DefaultCountry = ptr("GB")
	created.DefaultTownOrCity = ptr("London")
	require.NoError(t, repo.UpdateDefaults(ctx, created))

	stored, err := repo.GetByUsername(ctx, "ada")
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.NotNil(t, stored.DefaultCountry)
	assert.Equal(t, "GB", *stored.DefaultCountry)
	assert.Equal(t, "London", *stored.DefaultTownOrCity)
	assert.Nil(t, stored.DefaultCounty)
	assert.False(t, stored.UpdatedAt.Before(stored.CreatedAt))
}
