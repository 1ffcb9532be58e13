package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/threadline-io/threadline-backend/pkg/db/models"
	"github.com/threadline-io/threadline-backend/pkg/types"
)

// OrderDTO is the transport shape for a placed order.
type OrderDTO struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"user_id"`
	Status        string           `json:"status"`
	PaymentMethod string           `json:"payment_method"`
	TotalCents    int              `json:"total_cents"`
	Total         string           `json:"total"`
	Shipping      ShippingDTO      `json:"shipping"`
	Items         []OrderItemDTO   `json:"items"`
	StatusEvents  []StatusEventDTO `json:"status_events,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ShippingDTO groups the address snapshot captured at checkout.
type ShippingDTO struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// OrderItemDTO is one purchased line with its optional return request.
type OrderItemDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"product_id"`
	Name           string     `json:"name"`
	Size           string     `json:"size"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int        `json:"unit_price_cents"`
	UnitPrice      string     `json:"unit_price"`
	LineTotalCents int        `json:"line_total_cents"`
	LineTotal      string     `json:"line_total"`
	ImageURL       string     `json:"image_url,omitempty"`
	Return         *ReturnDTO `json:"return,omitempty"`
}

// ReturnDTO is the transport shape for a line item's return request.
type ReturnDTO struct {
	ID          uuid.UUID `json:"id"`
	Reason      string    `json:"reason"`
	Description string    `json:"description,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatusEventDTO is one entry of the order's status audit history.
type StatusEventDTO struct {
	FromStatus string     `json:"from_status"`
	ToStatus   string     `json:"to_status"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	Note       string     `json:"note,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// OrderListResult is one page of orders plus the cursor for the next page.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// UpdateStatusRequest moves an order to a new status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

// CreateReturnRequest opens a return for one line item, addressed by its
// product/size key within the order.
type CreateReturnRequest struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	Size        string    `json:"size" validate:"required"`
	Reason      string    `json:"reason" validate:"required"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
}

// UpdateReturnStatusRequest advances a return's status.
type UpdateReturnStatusRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"required"`
	Status    string    `json:"status" validate:"required"`
}

// FromModel maps an order row and its preloaded associations to a DTO.
func FromModel(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:            order.ID,
		UserID:        order.UserID,
		Status:        order.Status.String(),
		PaymentMethod: order.PaymentMethod.String(),
		TotalCents:    order.TotalCents,
		Total:         types.DollarsFromCents(order.TotalCents),
		Shipping: ShippingDTO{
			Name:         order.ShippingName,
			Phone:        order.Phone,
			AddressLine1: order.AddressLine1,
			AddressLine2: order.AddressLine2,
			City:         order.City,
			State:        order.State,
			PostalCode:   order.PostalCode,
			Country:      order.Country,
		},
		Items:     make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt: order.CreatedAt,
	}
	for i := range order.Items {
		dto.Items = append(dto.Items, itemFromModel(&order.Items[i]))
	}
	for i := range order.StatusEvents {
		event := &order.StatusEvents[i]
		dto.StatusEvents = append(dto.StatusEvents, StatusEventDTO{
			FromStatus: event.FromStatus.String(),
			ToStatus:   event.ToStatus.String(),
			ActorID:    event.ActorID,
			Note:       event.Note,
			CreatedAt:  event.CreatedAt,
		})
	}
	return dto
}

func itemFromModel(item *models.OrderItem) OrderItemDTO {
	dto := OrderItemDTO{
		ID:             item.ID,
		ProductID:      item.ProductID,
		Name:           item.Name,
		Size:           item.Size,
		Quantity:       item.Quantity,
		UnitPriceCents: item.UnitPriceCents,
		UnitPrice:      types.DollarsFromCents(item.UnitPriceCents),
		LineTotalCents: item.LineTotalCents,
		LineTotal:      types.DollarsFromCents(item.LineTotalCents),
		ImageURL:       item.ImageURL,
	}
	if item.Return != nil {
		dto.Return = &ReturnDTO{
			ID:          item.Return.ID,
			Reason:      item.Return.Reason.String(),
			Description: item.Return.Description,
			Images:      item.Return.Images,
			Status:      item.Return.Status.String(),
			CreatedAt:   item.Return.CreatedAt,
		}
	}
	return dto
}
