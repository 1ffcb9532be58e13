package checkout

import (
	"github.com/google/uuid"
)

// Selection names one cart line to purchase by its product/size key.
type Selection struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"required"`
}

// CheckoutRequest carries the selected cart lines plus the shipping and
// payment details captured at checkout.
type CheckoutRequest struct {
	Selections    []Selection `json:"selections" validate:"required,min=1,dive"`
	PaymentMethod string      `json:"payment_method" validate:"required"`
	ShippingName  string      `json:"shipping_name" validate:"required"`
	Phone         string      `json:"phone" validate:"required"`
	AddressLine1  string      `json:"address_line1" validate:"required"`
	AddressLine2  string      `json:"address_line2"`
	City          string      `json:"city" validate:"required"`
	State         string      `json:"state"`
	PostalCode    string      `json:"postal_code" validate:"required"`
	Country       string      `json:"country" validate:"required"`
}
