package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is an immutable snapshot of a purchased line.
type OrderItem struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	Name           string           `gorm:"column:name;not null"`
	Size           string           `gorm:"column:size;not null"`
	Quantity       int              `gorm:"column:quantity;not null"`
	UnitPriceCents int              `gorm:"column:unit_price_cents;not null"`
	LineTotalCents int              `gorm:"column:line_total_cents;not null"`
	ImageURL       string           `gorm:"column:image_url;not null;default:''"`
	Return         *OrderItemReturn `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
}
