package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline-io/threadline-backend/pkg/db/models"
	"github.com/threadline-io/threadline-backend/pkg/enums"
	"github.com/threadline-io/threadline-backend/pkg/pagination"
)

// OrderRepository defines the persistence surface required by the order
// service and the checkout workflow.
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	AddStatusEvent(ctx context.Context, event *models.OrderStatusEvent) error
	CreateReturn(ctx context.Context, ret *models.OrderItemReturn) (*models.OrderItemReturn, error)
	UpdateReturnStatus(ctx context.Context, returnID uuid.UUID, status enums.ReturnStatus) error
	Delete(ctx context.Context, orderID uuid.UUID) error
}
