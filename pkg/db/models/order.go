package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/threadline-io/threadline-backend/pkg/enums"
)

// Order is a placed order with snapshot line items. Shipping fields are
// copied from the checkout request so later address edits never touch
// historical orders.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'Pending'"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	TotalCents    int                 `gorm:"column:total_cents;not null"`
	ShippingName  string              `gorm:"column:shipping_name;not null"`
	Phone         string              `gorm:"column:phone;not null"`
	AddressLine1  string              `gorm:"column:address_line1;not null"`
	AddressLine2  string              `gorm:"column:address_line2;not null;default:''"`
	City          string              `gorm:"column:city;not null"`
	State         string              `gorm:"column:state;not null;default:''"`
	PostalCode    string              `gorm:"column:postal_code;not null"`
	Country       string              `gorm:"column:country;not null"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	StatusEvents  []OrderStatusEvent  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
