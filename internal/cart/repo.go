package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline-io/threadline-backend/pkg/db/models"
)

// Repository wires together cart and cart item persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	return &Repository{db: tx}
}

// FindByUser loads a user's cart with its items, newest line first.
// Returns gorm.ErrRecordNotFound when the user has no cart yet.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at DESC").Order("id DESC")
		}).
		First(&cart, "user_id = ?", userID).
		Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindOrCreateByUser loads the user's cart, creating an empty one on first
// use. The unique index on user_id keeps concurrent first-adds from racing
// into duplicate carts.
func (r *Repository) FindOrCreateByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	fresh := &models.Cart{ID: uuid.New(), UserID: userID}
	if createErr := r.db.WithContext(ctx).Create(fresh).Error; createErr != nil {
		// Lost the race: another request created the cart first.
		if existing, findErr := r.FindByUser(ctx, userID); findErr == nil {
			return existing, nil
		}
		return nil, createErr
	}
	return fresh, nil
}

// FindItem loads one cart line by its (product, size) key.
func (r *Repository) FindItem(ctx context.Context, cartID, productID uuid.UUID, size string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ? AND size = ?", cartID, productID, size).
		First(&item).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new cart line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemQuantity replaces the quantity on an existing line.
func (r *Repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		UpdateColumn("quantity", quantity).
		Error
}

// DeleteItem removes one line by its (product, size) key and reports
// whether a row was actually deleted.
func (r *Repository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID, size string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ? AND size = ?", cartID, productID, size).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteItemsByID removes the given lines from a cart. Used after checkout
// to prune exactly the purchased lines.
func (r *Repository) DeleteItemsByID(ctx context.Context, cartID uuid.UUID, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND id IN ?", cartID, itemIDs).
		Delete(&models.CartItem{}).
		Error
}

// ClearItems drops every line in the cart.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).
		Error
}
