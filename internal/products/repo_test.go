package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/threadline-io/threadline-backend/pkg/db/models"
	"github.com/threadline-io/threadline-backend/pkg/pagination"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  category TEXT,
  price_cents INTEGER NOT NULL,
  images TEXT NOT NULL DEFAULT '{}',
  sizes TEXT NOT NULL DEFAULT '{}',
  stock_qty INTEGER NOT NULL DEFAULT 0,
  sold_qty INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	reviews := `
CREATE TABLE IF NOT EXISTS product_reviews (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  user_name TEXT NOT NULL,
  rating INTEGER NOT NULL,
  comment TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(reviews).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM product_reviews")
		db.Exec("DELETE FROM products")
	})
	return db
}

func createProduct(t *testing.T, db *gorm.DB, name string, priceCents int, active bool, created time.Time) *models.Product {
	t.Helper()

	product := &models.Product{
		Name:       name,
		PriceCents: priceCents,
		Images:     pq.StringArray{"https://cdn.example.com/a.jpg"},
		Sizes:      pq.StringArray{"S", "M"},
		StockQty:   10,
		IsActive:   active,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	product.ID = uuid.New()
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRepositoryListPaginationAndFilters(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	createProduct(t, db, "Linen Shirt", 4599, true, now.Add(-2*time.Hour))
	newest := createProduct(t, db, "Wool Sweater", 12900, true, now)
	createProduct(t, db, "Hidden Jacket", 9900, false, now.Add(-time.Hour))

	list, err := repo.List(context.Background(), pagination.Params{Limit: 1}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, newest.ID, list.Products[0].ID)
	assert.NotEmpty(t, list.NextCursor)

	second, err := repo.List(context.Background(), pagination.Params{Limit: 1, Cursor: list.NextCursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	assert.Equal(t, "Linen Shirt", second.Products[0].Name)
	assert.Empty(t, second.NextCursor)

	all, err := repo.List(context.Background(), pagination.Params{Limit: 10}, ListFilters{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all.Products, 3)

	search, err := repo.List(context.Background(), pagination.Params{Limit: 10}, ListFilters{Query: "wool"})
	require.NoError(t, err)
	require.Len(t, search.Products, 1)
	assert.Equal(t, "Wool Sweater", search.Products[0].Name)
}

func TestRepositoryFindByIDs(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	a := createProduct(t, db, "Shirt A", 1000, true, now)
	b := createProduct(t, db, "Shirt B", 2000, true, now)

	rows, err := repo.FindByIDs(context.Background(), []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	empty, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepositoryIncrementSold(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)

	product := createProduct(t, db, "Best Seller", 3000, true, time.Now().UTC())
	require.NoError(t, repo.IncrementSold(context.Background(), product.ID, 3))
	require.NoError(t, repo.IncrementSold(context.Background(), product.ID, 2))

	reloaded, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.SoldQty)
}

func TestRepositoryReviewsAndStats(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)

	product := createProduct(t, db, "Reviewed Coat", 20000, true, time.Now().UTC())

	for i, rating := range []int{5, 4, 3} {
		review := &models.ProductReview{
			ProductID: product.ID,
			UserID:    uuid.New(),
			UserName:  "Shopper",
			Rating:    rating,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		review.ID = uuid.New()
		_, err := repo.CreateReview(context.Background(), review)
		require.NoError(t, err)
	}

	page, err := repo.ListReviews(context.Background(), product.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Reviews, 2)
	assert.NotEmpty(t, page.NextCursor)
	assert.Equal(t, 3, page.Reviews[0].Rating, "newest review first")

	rest, err := repo.ListReviews(context.Background(), product.ID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Reviews, 1)

	avg, count, err := repo.ReviewStats(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.InDelta(t, 4.0, avg, 0.001)
}
