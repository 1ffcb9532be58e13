package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/threadline-io/threadline-backend/pkg/enums"
)

// OrderStatusEvent records a status transition for audit history.
type OrderStatusEvent struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus enums.OrderStatus `gorm:"column:from_status;not null"`
	ToStatus   enums.OrderStatus `gorm:"column:to_status;not null"`
	ActorID    *uuid.UUID        `gorm:"column:actor_id;type:uuid"`
	Note       string            `gorm:"column:note;not null;default:''"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}
