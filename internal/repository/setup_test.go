package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a migrated PostgreSQL testcontainer and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.Migrate(connStr, zerolog.Nop()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func ptr[T any](v T) *T {
	return &v
}

// seedCatalog inserts a small catalogue and returns the products keyed by name.
func seedCatalog(t *testing.T, repo ProductRepository) map[string]model.Product {
	ctx := context.Background()

	clothing := &model.Category{Name: "clothing", FriendlyName: ptr("Clothing")}
	kitchen := &model.Category{Name: "kitchen", FriendlyName: ptr("Kitchen & Dining")}
	require.NoError(t, repo.UpsertCategory(ctx, clothing))
	require.NoError(t, repo.UpsertCategory(ctx, kitchen))

	products := []*model.Product{
		{CategoryID: &clothing.ID, SKU: ptr("SH-001"), Name: "Linen Shirt", Description: "Breathable summer shirt",
			HasSizes: true, Price: decimal.RequireFromString("12.50"), Rating: ptr(decimal.RequireFromString("4.5"))},
		{CategoryID: &kitchen.ID, SKU: ptr("KT-002"), Name: "Canvas Tote", Description: "Carries 100% of your groceries",
			Price: decimal.RequireFromString("25.00"), Rating: ptr(decimal.RequireFromString("3.9"))},
		{CategoryID: &kitchen.ID, SKU: ptr("KT-003"), Name: "apron", Description: "Cotton apron",
			Price: decimal.RequireFromString("8.99")},
	}

	byName := map[string]model.Product{}
	for _, p := range products {
		require.NoError(t, repo.UpsertProduct(ctx, p))
		byName[p.Name] = *p
	}
	return byName
}
