package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline-io/threadline-backend/internal/cart"
	"github.com/threadline-io/threadline-backend/internal/orders"
	"github.com/threadline-io/threadline-backend/pkg/db/models"
	"github.com/threadline-io/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline-io/threadline-backend/pkg/errors"
	"github.com/threadline-io/threadline-backend/pkg/logger"
	"github.com/threadline-io/threadline-backend/pkg/metrics"
	"github.com/threadline-io/threadline-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productCatalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	IncrementSold(ctx context.Context, id uuid.UUID, qty int) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type orderMailer interface {
	SendOrderConfirmation(ctx context.Context, to, name string, order *orders.OrderDTO) error
}

// Service turns a set of selected cart lines into a placed order.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*orders.OrderDTO, error)
}

type service struct {
	tx       txRunner
	carts    cart.CartRepository
	orders   orders.OrderRepository
	products productCatalog
	users    userLoader
	mailer   orderMailer
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build a checkout service.
type ServiceParams struct {
	TxRunner  txRunner
	CartRepo  cart.CartRepository
	OrderRepo orders.OrderRepository
	Products  productCatalog
	Users     userLoader
	Mailer    orderMailer
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
}

// NewService builds a checkout service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.OrderRepo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product catalog is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user loader is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("order mailer is required")
	}
	return &service{
		tx:       params.TxRunner,
		carts:    params.CartRepo,
		orders:   params.OrderRepo,
		products: params.Products,
		users:    params.Users,
		mailer:   params.Mailer,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Execute places an order from the selected cart lines. The order snapshot
// and the pruning of the purchased lines commit in one transaction; the
// sold-quantity counters and the confirmation email are best effort and
// never fail a placed order.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*orders.OrderDTO, error) {
	paymentMethod, err := enums.ParsePaymentMethod(strings.TrimSpace(strings.ToLower(req.PaymentMethod)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if err := validateShipping(req); err != nil {
		return nil, err
	}

	userCart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if len(userCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty")
	}

	selected := selectLines(userCart.Items, req.Selections)
	if len(selected) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no valid items selected")
	}

	catalog, err := s.loadCatalog(ctx, selected)
	if err != nil {
		return nil, err
	}

	order := buildOrder(userID, paymentMethod, req, selected, catalog)

	prunedIDs := make([]uuid.UUID, 0, len(selected))
	for _, line := range selected {
		prunedIDs = append(prunedIDs, line.ID)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, txErr := s.orders.WithTx(tx).Create(ctx, order); txErr != nil {
			return txErr
		}
		return s.carts.WithTx(tx).DeleteItemsByID(ctx, userCart.ID, prunedIDs)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "place order")
	}

	s.metrics.IncOrdersCreated()
	dto := orders.FromModel(order)

	s.bumpSoldCounters(ctx, order)
	s.sendConfirmation(ctx, userID, dto)

	return dto, nil
}

// validateShipping enforces the required shipping fields. Address line 2
// and state stay optional: most addresses have no suite line, and several
// supported countries have no state level.
func validateShipping(req CheckoutRequest) error {
	required := map[string]string{
		"shipping name": req.ShippingName,
		"phone":         req.Phone,
		"address line":  req.AddressLine1,
		"city":          req.City,
		"postal code":   req.PostalCode,
		"country":       req.Country,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
		}
	}
	return nil
}

// selectLines keeps the cart lines named by the selection set, matched on
// the (product, size) key.
func selectLines(items []models.CartItem, selections []Selection) []models.CartItem {
	var selected []models.CartItem
	for i := range items {
		item := items[i]
		for _, sel := range selections {
			if item.ProductID == sel.ProductID && strings.EqualFold(item.Size, strings.TrimSpace(sel.Size)) {
				selected = append(selected, item)
				break
			}
		}
	}
	return selected
}

// loadCatalog re-reads the selected products so the order snapshots current
// name and price, not the values cached on the cart lines. A product that
// vanished or was deactivated since it was carted fails the whole checkout.
func (s *service) loadCatalog(ctx context.Context, selected []models.CartItem) (map[uuid.UUID]*models.Product, error) {
	ids := make([]uuid.UUID, 0, len(selected))
	seen := map[uuid.UUID]struct{}{}
	for _, line := range selected {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}

	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load products")
	}

	catalog := make(map[uuid.UUID]*models.Product, len(rows))
	for i := range rows {
		if rows[i].IsActive {
			catalog[rows[i].ID] = &rows[i]
		}
	}
	for _, id := range ids {
		if _, ok := catalog[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "a selected product is no longer available")
		}
	}
	return catalog, nil
}

func buildOrder(userID uuid.UUID, paymentMethod enums.PaymentMethod, req CheckoutRequest, selected []models.CartItem, catalog map[uuid.UUID]*models.Product) *models.Order {
	order := &models.Order{
		UserID:        userID,
		Status:        enums.OrderStatusPending,
		PaymentMethod: paymentMethod,
		ShippingName:  strings.TrimSpace(req.ShippingName),
		Phone:         strings.TrimSpace(req.Phone),
		AddressLine1:  strings.TrimSpace(req.AddressLine1),
		AddressLine2:  strings.TrimSpace(req.AddressLine2),
		City:          strings.TrimSpace(req.City),
		State:         strings.TrimSpace(req.State),
		PostalCode:    strings.TrimSpace(req.PostalCode),
		Country:       strings.TrimSpace(req.Country),
	}

	for _, line := range selected {
		product := catalog[line.ProductID]
		lineTotal := types.CentsLineTotal(product.PriceCents, line.Quantity)
		image := line.ImageURL
		if len(product.Images) > 0 {
			image = product.Images[0]
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:      product.ID,
			Name:           product.Name,
			Size:           line.Size,
			Quantity:       line.Quantity,
			UnitPriceCents: product.PriceCents,
			LineTotalCents: lineTotal,
			ImageURL:       image,
		})
		order.TotalCents += lineTotal
	}
	return order
}

// bumpSoldCounters updates the denormalized sold statistic per product.
// Failures are observable but never fail the placed order.
func (s *service) bumpSoldCounters(ctx context.Context, order *models.Order) {
	for _, item := range order.Items {
		if err := s.products.IncrementSold(ctx, item.ProductID, item.Quantity); err != nil {
			s.metrics.IncSoldUpdateFailed()
			if s.logg != nil {
				lctx := s.logg.WithOrderID(ctx, order.ID.String())
				lctx = s.logg.WithField(lctx, "product_id", item.ProductID.String())
				s.logg.Error(lctx, "sold counter update failed", err)
			}
		}
	}
}

// sendConfirmation emails the buyer. Fire and forget: a delivery failure is
// logged and counted, the order stands.
func (s *service) sendConfirmation(ctx context.Context, userID uuid.UUID, dto *orders.OrderDTO) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		s.metrics.IncEmailFailed()
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, dto.ID.String()), "confirmation recipient lookup failed", err)
		}
		return
	}
	if err := s.mailer.SendOrderConfirmation(ctx, user.Email, user.Name, dto); err != nil {
		s.metrics.IncEmailFailed()
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, dto.ID.String()), "confirmation email failed", err)
		}
	}
}
