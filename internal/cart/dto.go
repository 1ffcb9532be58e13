package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/threadline-io/threadline-backend/pkg/db/models"
	"github.com/threadline-io/threadline-backend/pkg/types"
)

// CartDTO is the transport shape for the per-user cart.
type CartDTO struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"user_id"`
	Items         []CartItemDTO `json:"items"`
	ItemCount     int           `json:"item_count"`
	SubtotalCents int           `json:"subtotal_cents"`
	Subtotal      string        `json:"subtotal"`
}

// CartItemDTO is one product/size line with its snapshot fields.
type CartItemDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Size           string    `json:"size"`
	Quantity       int       `json:"quantity"`
	ProductName    string    `json:"product_name"`
	UnitPriceCents int       `json:"unit_price_cents"`
	UnitPrice      string    `json:"unit_price"`
	LineTotalCents int       `json:"line_total_cents"`
	LineTotal      string    `json:"line_total"`
	ImageURL       string    `json:"image_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// AddItemRequest adds quantity of a product/size line to the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// UpdateQuantityRequest replaces the quantity of an existing line.
type UpdateQuantityRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// RemoveItemRequest identifies a line by its product/size key.
type RemoveItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"required"`
}

func cartFromModel(c *models.Cart) *CartDTO {
	dto := &CartDTO{
		ID:     c.ID,
		UserID: c.UserID,
		Items:  make([]CartItemDTO, 0, len(c.Items)),
	}
	for i := range c.Items {
		item := itemFromModel(&c.Items[i])
		dto.Items = append(dto.Items, item)
		dto.ItemCount += item.Quantity
		dto.SubtotalCents += item.LineTotalCents
	}
	dto.Subtotal = types.DollarsFromCents(dto.SubtotalCents)
	return dto
}

func itemFromModel(item *models.CartItem) CartItemDTO {
	lineTotal := types.CentsLineTotal(item.UnitPriceCents, item.Quantity)
	return CartItemDTO{
		ID:             item.ID,
		ProductID:      item.ProductID,
		Size:           item.Size,
		Quantity:       item.Quantity,
		ProductName:    item.ProductName,
		UnitPriceCents: item.UnitPriceCents,
		UnitPrice:      types.DollarsFromCents(item.UnitPriceCents),
		LineTotalCents: lineTotal,
		LineTotal:      types.DollarsFromCents(lineTotal),
		ImageURL:       item.ImageURL,
		CreatedAt:      item.CreatedAt,
	}
}
