package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline-io/threadline-backend/pkg/db/models"
	"github.com/threadline-io/threadline-backend/pkg/enums"
	"github.com/threadline-io/threadline-backend/pkg/pagination"
)

// Repository wires together order, status event, and return persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) OrderRepository {
	return &Repository{db: tx}
}

// Create inserts the order together with its line items.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID loads an order with its items, returns, and status history.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC").Order("id ASC")
		}).
		Preload("Items.Return").
		Preload("StatusEvents", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC").Order("id ASC")
		}).
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns one page of a user's orders, newest first. A nil user
// id lists orders across all users for administrative views.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderListResult, error) {
	pageSize := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).Model(&models.Order{})
	if userID != uuid.Nil {
		qb = qb.Where("user_id = ?", userID)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = qb.Preload("Items").
		Preload("Items.Return").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return &OrderListResult{Orders: dtos, NextCursor: nextCursor}, nil
}

// UpdateStatus overwrites the order's status column.
func (r *Repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		UpdateColumn("status", status).
		Error
}

// AddStatusEvent appends one entry to the order's audit history.
func (r *Repository) AddStatusEvent(ctx context.Context, event *models.OrderStatusEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// CreateReturn inserts a return request for one line item. The unique index
// on order_item_id rejects a second return for the same line.
func (r *Repository) CreateReturn(ctx context.Context, ret *models.OrderItemReturn) (*models.OrderItemReturn, error) {
	if err := r.db.WithContext(ctx).Create(ret).Error; err != nil {
		return nil, err
	}
	return ret, nil
}

// UpdateReturnStatus overwrites a return's status column.
func (r *Repository) UpdateReturnStatus(ctx context.Context, returnID uuid.UUID, status enums.ReturnStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItemReturn{}).
		Where("id = ?", returnID).
		UpdateColumn("status", status).
		Error
}

// Delete removes an order; items, events, and returns cascade.
func (r *Repository) Delete(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", orderID).Delete(&models.Order{}).Error
}
