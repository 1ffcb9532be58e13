package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem persists a product/size line in a cart. The product name, unit
// price, and image are snapshots taken when the line was added; the checkout
// flow re-reads authoritative prices from products.
type CartItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_line,priority:1"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_items_line,priority:2"`
	Size           string    `gorm:"column:size;not null;uniqueIndex:idx_cart_items_line,priority:3"`
	Quantity       int       `gorm:"column:quantity;not null"`
	ProductName    string    `gorm:"column:product_name;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	ImageURL       string    `gorm:"column:image_url;not null;default:''"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
