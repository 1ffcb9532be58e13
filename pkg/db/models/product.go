package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product represents a storefront listing.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description;not null;default:''"`
	Category    *string         `gorm:"column:category"`
	PriceCents  int             `gorm:"column:price_cents;not null"`
	Images      pq.StringArray  `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	Sizes       pq.StringArray  `gorm:"column:sizes;type:text[];not null;default:ARRAY[]::text[]"`
	StockQty    int             `gorm:"column:stock_qty;not null;default:0"`
	SoldQty     int             `gorm:"column:sold_qty;not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	Reviews     []ProductReview `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
