package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), OpenConfig{
		Driver: "sqlite",
		DSN:    ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestProductRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	product := &Product{
		Name:     "Fire Extinguisher ABC 6kg",
		Category: CategoryNewSupply,
		Unit:     "Nos",
		Rate:     1250,
	}
	require.NoError(t, repo.Create(ctx, product))
	assert.NotEqual(t, uuid.Nil, product.ID)

	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fire Extinguisher ABC 6kg", got.Name)
	assert.Equal(t, CategoryNewSupply, got.Category)
	assert.Equal(t, 1250.0, got.Rate)
}

func TestProductRepository_DefaultsCategory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)

	product := &Product{Name: "Hose Reel", Unit: "Nos", Rate: 900}
	require.NoError(t, repo.Create(context.Background(), product))
	assert.Equal(t, CategoryGeneral, product.Category)
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepository_ListOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	names := []string{"Pipe 25mm", "Pipe 80mm", "Sprinkler Head"}
	for _, name := range names {
		require.NoError(t, repo.Create(ctx, &Product{Name: name, Unit: "Mtr", Rate: 100}))
		time.Sleep(2 * time.Millisecond)
	}

	products, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	for i, name := range names {
		assert.Equal(t, name, products[i].Name)
	}
}

func TestProductRepository_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()

	product := &Product{Name: "Smoke Detector", Category: CategoryAccessories, Unit: "Nos", Rate: 450}
	require.NoError(t, repo.Create(ctx, product))

	product.Rate = 475
	require.NoError(t, repo.Update(ctx, product))

	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 475.0, got.Rate)

	require.NoError(t, repo.Delete(ctx, product.ID))
	_, err = repo.GetByID(ctx, product.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, product.ID), ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, product), ErrNotFound)
}

func TestQuotationRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	product := &Product{Name: "Fire Pump 2280 LPM", Category: CategoryNewSupply, Unit: "Nos", Rate: 185000}
	require.NoError(t, repos.Products.Create(ctx, product))

	q := &Quotation{
		ClientName:    "Acme Industries",
		ClientAddress: "Plot 14, Industrial Area",
		QuotationDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		QuotationType: "supply",
		Subtotal:      185000,
		Discount:      9250,
		GST:           31635,
		Total:         207385,
		Items: []QuotationItem{
			// Header row: quantity zero keeps it out of totals.
			{Name: "Fire Pump Room", Unit: "Each", Quantity: 0, Rate: 0, Amount: 0},
			{ProductID: &product.ID, Name: "Fire Pump 2280 LPM", Unit: "Nos", Quantity: 1, Rate: 185000, Amount: 185000},
		},
	}
	require.NoError(t, repos.Quotations.Create(ctx, q))

	got, err := repos.Quotations.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Industries", got.ClientName)
	require.Len(t, got.Items, 2)

	assert.True(t, got.Items[0].IsHeader())
	assert.Nil(t, got.Items[0].ProductID)
	assert.False(t, got.Items[1].IsHeader())
	require.NotNil(t, got.Items[1].ProductID)
	assert.Equal(t, product.ID, *got.Items[1].ProductID)
	assert.Equal(t, 0, got.Items[0].Position)
	assert.Equal(t, 1, got.Items[1].Position)
}

func TestQuotationRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuotationRepository(db)
	ctx := context.Background()

	for _, name := range []string{"First Client", "Second Client"} {
		require.NoError(t, repo.Create(ctx, &Quotation{
			ClientName:    name,
			QuotationDate: time.Now(),
			QuotationType: "supply",
		}))
		time.Sleep(2 * time.Millisecond)
	}

	quotations, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, quotations, 2)
	// Newest first.
	assert.Equal(t, "Second Client", quotations[0].ClientName)
	assert.Empty(t, quotations[0].Items)
}

func TestQuotationRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuotationRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
