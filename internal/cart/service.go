package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline-io/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadline-io/threadline-backend/pkg/errors"
	"github.com/threadline-io/threadline-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the per-user cart operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, req UpdateQuantityRequest) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, req RemoveItemRequest) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	Repo     CartRepository
	TxRunner txRunner
	Products productLoader
	Logger   *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader is required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.TxRunner,
		products: params.Products,
		logg:     params.Logger,
	}, nil
}

// Get returns the user's cart. A user who has never added anything gets an
// empty cart created and persisted on first read.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cartFromModel(cart), nil
}

// AddItem adds quantity of a product/size line, creating the cart on first
// use. Re-adding an existing (product, size) key accumulates its quantity.
// The product's current name, price, and lead image are snapshotted onto
// the line at add time.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartDTO, error) {
	size := strings.TrimSpace(req.Size)
	if size == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size is required")
	}
	if req.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.loadActiveProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	size, ok := canonicalSize(product, size)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size not offered for this product")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, txErr := repo.FindOrCreateByUser(ctx, userID)
		if txErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "load cart")
		}

		existing, txErr := repo.FindItem(ctx, cart.ID, product.ID, size)
		if txErr == nil {
			return repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+req.Quantity)
		}
		if !errors.Is(txErr, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "load cart item")
		}

		item := &models.CartItem{
			CartID:         cart.ID,
			ProductID:      product.ID,
			Size:           size,
			Quantity:       req.Quantity,
			ProductName:    product.Name,
			UnitPriceCents: product.PriceCents,
			ImageURL:       leadImage(product),
		}
		_, txErr = repo.CreateItem(ctx, item)
		return txErr
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}

	return s.Get(ctx, userID)
}

// UpdateQuantity replaces the quantity on an existing line.
func (s *service) UpdateQuantity(ctx context.Context, userID uuid.UUID, req UpdateQuantityRequest) (*CartDTO, error) {
	size := strings.TrimSpace(req.Size)
	if size == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size is required")
	}
	if req.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, cart.ID, req.ProductID, size)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	if err := s.repo.UpdateItemQuantity(ctx, item.ID, req.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}

	return s.Get(ctx, userID)
}

// RemoveItem deletes one line by its product/size key. Removing a key that
// is not in the cart is a no-op, not an error; only a missing cart fails.
func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, req RemoveItemRequest) (*CartDTO, error) {
	size := strings.TrimSpace(req.Size)
	if size == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size is required")
	}

	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.DeleteItem(ctx, cart.ID, req.ProductID, size); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}

	return s.Get(ctx, userID)
}

// Clear drops every line in the user's cart. Clearing a cart that was never
// created fails with not found.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.loadCart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) loadCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

func (s *service) loadActiveProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

// canonicalSize matches the requested size against the product's offered
// sizes case-insensitively and returns the product's own spelling, so "m"
// and "M" land on the same cart line.
func canonicalSize(product *models.Product, size string) (string, bool) {
	for _, s := range product.Sizes {
		if strings.EqualFold(s, size) {
			return s, true
		}
	}
	return "", false
}

func leadImage(product *models.Product) string {
	if len(product.Images) > 0 {
		return product.Images[0]
	}
	return ""
}
