// Package integration provides integration tests for the quotation engine.
package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cityfire/quotation-engine/internal/observability"
	"github.com/cityfire/quotation-engine/internal/reconcile"
	"github.com/cityfire/quotation-engine/internal/storage"
)

func setupPostgres(t *testing.T) *storage.Repositories {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("quotation_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/quotation_test?sslmode=disable", host, port.Port())
	db, err := storage.Open(ctx, storage.OpenConfig{Driver: "postgres", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return storage.NewRepositories(db)
}

func TestPostgres_CatalogRoundTrip(t *testing.T) {
	repos := setupPostgres(t)
	ctx := context.Background()

	product := &storage.Product{
		Name:     "Fire Pump 2280 LPM",
		Category: storage.CategoryNewSupply,
		Unit:     "Nos",
		Rate:     185000,
	}
	require.NoError(t, repos.Products.Create(ctx, product))

	got, err := repos.Products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.Name, got.Name)
	assert.Equal(t, product.Rate, got.Rate)

	products, err := repos.Products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestPostgres_QuotationWithItems(t *testing.T) {
	repos := setupPostgres(t)
	ctx := context.Background()

	product := &storage.Product{Name: "Smoke Detector", Unit: "Nos", Rate: 450}
	require.NoError(t, repos.Products.Create(ctx, product))

	q := &storage.Quotation{
		ClientName:    "Acme Industries",
		QuotationDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		QuotationType: "supply",
		Subtotal:      1800,
		Total:         1800,
		Items: []storage.QuotationItem{
			{Name: "Detection System", Unit: "Each", Quantity: 0},
			{ProductID: &product.ID, Name: "Smoke Detector", Unit: "Nos", Quantity: 4, Rate: 450, Amount: 1800},
		},
	}
	require.NoError(t, repos.Quotations.Create(ctx, q))

	got, err := repos.Quotations.GetByID(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.True(t, got.Items[0].IsHeader())
	require.NotNil(t, got.Items[1].ProductID)
	assert.Equal(t, product.ID, *got.Items[1].ProductID)
}

func TestPostgres_ReconcilerGrowsCatalog(t *testing.T) {
	repos := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, repos.Products.Create(ctx, &storage.Product{
		Name: "Agni Pipe 80mm", Unit: "Mtr", Rate: 1000,
	}))

	classifier := reconcile.NewClassifier([]string{"section"})
	matcher := reconcile.NewMatcher(reconcile.MatcherConfig{
		ScoreThreshold: 0.25,
		BrandBonus:     0.3,
		Brands:         []string{"agni"},
		SpecUnits:      []string{"mm", "ltr", "lpm", "hp", "kva", "zone"},
	})
	r := reconcile.New(classifier, matcher, repos.Products, observability.DefaultLogger())

	// The 25mm pipe must not match the 80mm entry; a new product lands in
	// the database instead.
	items, err := r.Reconcile(ctx, []reconcile.LineItem{
		{Name: "Agni Pipe 25mm", Quantity: 10, Unit: "Mtr", Rate: 400},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].NewProduct)

	products, err := repos.Products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	// Rerunning the same item now hits the freshly persisted product.
	again, err := r.Reconcile(ctx, []reconcile.LineItem{
		{Name: "Agni Pipe 25mm", Quantity: 10, Unit: "Mtr", Rate: 400},
	})
	require.NoError(t, err)
	assert.False(t, again[0].NewProduct)
}
