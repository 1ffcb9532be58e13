package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline-io/threadline-backend/pkg/db"
	"github.com/threadline-io/threadline-backend/pkg/db/models"
	"github.com/threadline-io/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline-io/threadline-backend/pkg/errors"
	"github.com/threadline-io/threadline-backend/pkg/logger"
	"github.com/threadline-io/threadline-backend/pkg/pagination"
)

const returnConstraint = "idx_order_item_returns_item"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes order history, status lifecycle, and return operations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListResult, error)
	ListAll(ctx context.Context, params pagination.Params) (*OrderListResult, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID, actorID uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error)
	CreateReturn(ctx context.Context, userID, orderID uuid.UUID, req CreateReturnRequest) (*OrderDTO, error)
	UpdateReturnStatus(ctx context.Context, orderID uuid.UUID, req UpdateReturnStatusRequest) (*OrderDTO, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	repo OrderRepository
	tx   txRunner
	logg *logger.Logger
}

// ServiceParams bundles the dependencies required to build an order service.
type ServiceParams struct {
	Repo     OrderRepository
	TxRunner txRunner
	Logger   *logger.Logger
}

// NewService builds an order service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &service{repo: params.Repo, tx: params.TxRunner, logg: params.Logger}, nil
}

// List returns one page of the user's own orders, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListResult, error) {
	result, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return result, nil
}

// ListAll returns one page of orders across every user.
func (s *service) ListAll(ctx context.Context, params pagination.Params) (*OrderListResult, error) {
	result, err := s.repo.ListByUser(ctx, uuid.Nil, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return result, nil
}

// Get loads one of the user's own orders. Another user's order is reported
// as not found rather than forbidden, so order ids cannot be probed.
func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return FromModel(order), nil
}

// AdminGet loads any order regardless of owner.
func (s *service) AdminGet(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

// UpdateStatus moves the order to any of the allowed statuses and appends an
// audit event. Transitions are deliberately permissive: any valid status may
// follow any other, the history records what actually happened.
func (s *service) UpdateStatus(ctx context.Context, orderID, actorID uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error) {
	status, err := enums.ParseOrderStatus(strings.TrimSpace(req.Status))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if txErr := repo.UpdateStatus(ctx, order.ID, status); txErr != nil {
			return txErr
		}
		event := &models.OrderStatusEvent{
			OrderID:    order.ID,
			FromStatus: order.Status,
			ToStatus:   status,
			ActorID:    &actorID,
			Note:       strings.TrimSpace(req.Note),
		}
		return repo.AddStatusEvent(ctx, event)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}

	return s.AdminGet(ctx, orderID)
}

// CreateReturn opens a return for one line item. Returns are only accepted
// while the order is Shipped; a successful request flips the order to
// Returned and leaves the return itself Pending for an admin to work.
func (s *service) CreateReturn(ctx context.Context, userID, orderID uuid.UUID, req CreateReturnRequest) (*OrderDTO, error) {
	size := strings.TrimSpace(req.Size)
	if req.ProductID == uuid.Nil || size == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and size are required")
	}
	reason, err := enums.ParseReturnReason(strings.TrimSpace(req.Reason))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid return reason")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusShipped {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "returns are only accepted for shipped orders")
	}

	item := findItem(order, req.ProductID, size)
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
	}
	if item.Return != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "a return was already requested for this item")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ret := &models.OrderItemReturn{
			OrderItemID: item.ID,
			OrderID:     order.ID,
			UserID:      userID,
			Reason:      reason,
			Description: strings.TrimSpace(req.Description),
			Images:      append([]string{}, req.Images...),
			Status:      enums.ReturnStatusPending,
		}
		if _, txErr := repo.CreateReturn(ctx, ret); txErr != nil {
			return txErr
		}
		if txErr := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusReturned); txErr != nil {
			return txErr
		}
		event := &models.OrderStatusEvent{
			OrderID:    order.ID,
			FromStatus: order.Status,
			ToStatus:   enums.OrderStatusReturned,
			ActorID:    &userID,
			Note:       "return requested",
		}
		return repo.AddStatusEvent(ctx, event)
	})
	if err != nil {
		if db.IsUniqueViolation(err, returnConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a return was already requested for this item")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create return")
	}

	return s.AdminGet(ctx, orderID)
}

// UpdateReturnStatus advances a return through its own lifecycle.
func (s *service) UpdateReturnStatus(ctx context.Context, orderID uuid.UUID, req UpdateReturnStatusRequest) (*OrderDTO, error) {
	size := strings.TrimSpace(req.Size)
	if req.ProductID == uuid.Nil || size == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and size are required")
	}
	status, err := enums.ParseReturnStatus(strings.TrimSpace(req.Status))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid return status")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	item := findItem(order, req.ProductID, size)
	if item == nil || item.Return == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return not found")
	}

	if err := s.repo.UpdateReturnStatus(ctx, item.Return.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update return status")
	}

	return s.AdminGet(ctx, orderID)
}

// Delete removes an order permanently. Administrative escape hatch, orders
// are otherwise never deleted.
func (s *service) Delete(ctx context.Context, orderID uuid.UUID) error {
	if _, err := s.load(ctx, orderID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, orderID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
	}
	return nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func findItem(order *models.Order, productID uuid.UUID, size string) *models.OrderItem {
	for i := range order.Items {
		item := &order.Items[i]
		if item.ProductID == productID && strings.EqualFold(item.Size, size) {
			return item
		}
	}
	return nil
}
