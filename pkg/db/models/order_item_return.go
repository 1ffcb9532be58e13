package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/threadline-io/threadline-backend/pkg/enums"
)

// OrderItemReturn tracks a return request for a single order line. The unique
// index on order_item_id enforces at most one return per line.
type OrderItemReturn struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID uuid.UUID          `gorm:"column:order_item_id;type:uuid;not null;uniqueIndex"`
	OrderID     uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	Reason      enums.ReturnReason `gorm:"column:reason;not null"`
	Description string             `gorm:"column:description;not null;default:''"`
	Images      pq.StringArray     `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	Status      enums.ReturnStatus `gorm:"column:status;not null;default:'Pending'"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
