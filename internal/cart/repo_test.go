package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/threadline-io/threadline-backend/pkg/db/models"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	items := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  size TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  product_name TEXT NOT NULL DEFAULT '',
  unit_price_cents INTEGER NOT NULL DEFAULT 0,
  image_url TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id, size)
);`
	require.NoError(t, db.Exec(carts).Error)
	require.NoError(t, db.Exec(items).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM cart_items")
		db.Exec("DELETE FROM carts")
	})
	return db
}

func createCartItem(t *testing.T, repo *Repository, cartID uuid.UUID, size string, qty int, created time.Time) *models.CartItem {
	t.Helper()

	item := &models.CartItem{
		CartID:         cartID,
		ProductID:      uuid.New(),
		Size:           size,
		Quantity:       qty,
		ProductName:    "Fixture",
		UnitPriceCents: 1000,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	item.ID = uuid.New()
	_, err := repo.CreateItem(context.Background(), item)
	require.NoError(t, err)
	return item
}

func TestRepositoryFindOrCreateByUser(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	_, err := repo.FindByUser(context.Background(), userID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	cart, err := repo.FindOrCreateByUser(context.Background(), userID)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, cart.ID)

	again, err := repo.FindOrCreateByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID, "second call must reuse the cart")
}

func TestRepositoryItemsOrderedNewestFirst(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	cart, err := repo.FindOrCreateByUser(context.Background(), uuid.New())
	require.NoError(t, err)

	now := time.Now().UTC()
	createCartItem(t, repo, cart.ID, "S", 1, now.Add(-time.Hour))
	newest := createCartItem(t, repo, cart.ID, "M", 2, now)

	loaded, err := repo.FindByUser(context.Background(), cart.UserID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, newest.ID, loaded.Items[0].ID)
}

func TestRepositoryItemLifecycle(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	cart, err := repo.FindOrCreateByUser(context.Background(), uuid.New())
	require.NoError(t, err)

	item := createCartItem(t, repo, cart.ID, "M", 1, time.Now().UTC())

	found, err := repo.FindItem(context.Background(), cart.ID, item.ProductID, "M")
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	require.NoError(t, repo.UpdateItemQuantity(context.Background(), item.ID, 4))
	found, err = repo.FindItem(context.Background(), cart.ID, item.ProductID, "M")
	require.NoError(t, err)
	assert.Equal(t, 4, found.Quantity)

	removed, err := repo.DeleteItem(context.Background(), cart.ID, item.ProductID, "M")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteItem(context.Background(), cart.ID, item.ProductID, "M")
	require.NoError(t, err)
	assert.False(t, removed, "second delete must report nothing removed")
}

func TestRepositoryDeleteItemsByID(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	cart, err := repo.FindOrCreateByUser(context.Background(), uuid.New())
	require.NoError(t, err)

	now := time.Now().UTC()
	bought := createCartItem(t, repo, cart.ID, "S", 1, now)
	kept := createCartItem(t, repo, cart.ID, "M", 2, now)

	require.NoError(t, repo.DeleteItemsByID(context.Background(), cart.ID, []uuid.UUID{bought.ID}))

	loaded, err := repo.FindByUser(context.Background(), cart.UserID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, kept.ID, loaded.Items[0].ID)

	require.NoError(t, repo.ClearItems(context.Background(), cart.ID))
	loaded, err = repo.FindByUser(context.Background(), cart.UserID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
}
