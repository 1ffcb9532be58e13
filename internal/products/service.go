package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/threadline-io/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadline-io/threadline-backend/pkg/errors"
	"github.com/threadline-io/threadline-backend/pkg/logger"
	"github.com/threadline-io/threadline-backend/pkg/pagination"
)

// Service defines the behavior needed by the product controllers.
type Service interface {
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*ProductListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	Create(ctx context.Context, req CreateProductRequest) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddReview(ctx context.Context, productID, userID uuid.UUID, userName string, req CreateReviewRequest) (*ReviewDTO, error)
	ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewListResult, error)
}

type productRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*ProductListResult, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CreateReview(ctx context.Context, review *models.ProductReview) (*models.ProductReview, error)
	ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewListResult, error)
	ReviewStats(ctx context.Context, productID uuid.UUID) (float64, int64, error)
}

type service struct {
	repo productRepository
	logg *logger.Logger
}

// ServiceParams bundles the dependencies required to build a product service.
type ServiceParams struct {
	Repo   productRepository
	Logger *logger.Logger
}

// NewService constructs a product service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*ProductListResult, error) {
	result, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	product, err := s.loadVisible(ctx, id)
	if err != nil {
		return nil, err
	}

	avg, count, err := s.repo.ReviewStats(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load review stats")
	}

	return &ProductDetail{
		Product:     productFromModel(product),
		RatingAvg:   avg,
		RatingCount: count,
	}, nil
}

func (s *service) Create(ctx context.Context, req CreateProductRequest) (*ProductDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if req.PriceCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	sizes := cleanStrings(req.Sizes)
	if len(sizes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one size is required")
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	product := &models.Product{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Images:      cleanStrings(req.Images),
		Sizes:       sizes,
		StockQty:    req.StockQty,
		IsActive:    isActive,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	dto := productFromModel(created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		product.Category = req.Category
	}
	if req.PriceCents != nil {
		if *req.PriceCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.PriceCents = *req.PriceCents
	}
	if req.Images != nil {
		product.Images = cleanStrings(*req.Images)
	}
	if req.Sizes != nil {
		sizes := cleanStrings(*req.Sizes)
		if len(sizes) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one size is required")
		}
		product.Sizes = sizes
	}
	if req.StockQty != nil {
		if *req.StockQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.StockQty = *req.StockQty
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	dto := productFromModel(updated)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *service) AddReview(ctx context.Context, productID, userID uuid.UUID, userName string, req CreateReviewRequest) (*ReviewDTO, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if _, err := s.loadVisible(ctx, productID); err != nil {
		return nil, err
	}

	review := &models.ProductReview{
		ProductID: productID,
		UserID:    userID,
		UserName:  strings.TrimSpace(userName),
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	created, err := s.repo.CreateReview(ctx, review)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	dto := reviewFromModel(created)
	return &dto, nil
}

func (s *service) ListReviews(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewListResult, error) {
	if _, err := s.loadVisible(ctx, productID); err != nil {
		return nil, err
	}
	result, err := s.repo.ListReviews(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	return result, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

// loadVisible hides inactive listings from storefront read paths.
func (s *service) loadVisible(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func cleanStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
