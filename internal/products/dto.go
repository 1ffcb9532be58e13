package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/threadline-io/threadline-backend/pkg/db/models"
	"github.com/threadline-io/threadline-backend/pkg/types"
)

// ProductDTO is the storefront transport shape for a listing.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    *string   `json:"category,omitempty"`
	Price       string    `json:"price"`
	PriceCents  int       `json:"price_cents"`
	Images      []string  `json:"images"`
	Sizes       []string  `json:"sizes"`
	StockQty    int       `json:"stock_qty"`
	SoldQty     int       `json:"sold_qty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductDetail pairs a product with its review aggregate.
type ProductDetail struct {
	Product     ProductDTO `json:"product"`
	RatingAvg   float64    `json:"rating_avg"`
	RatingCount int64      `json:"rating_count"`
}

// ReviewDTO is the transport shape for a product review.
type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductListResult carries one page of listings plus the next cursor.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// ReviewListResult carries one page of reviews plus the next cursor.
type ReviewListResult struct {
	Reviews    []ReviewDTO `json:"reviews"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// CreateProductRequest is the admin payload for a new listing.
type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Category    *string  `json:"category,omitempty"`
	PriceCents  int      `json:"price_cents" validate:"required,gt=0"`
	Images      []string `json:"images"`
	Sizes       []string `json:"sizes" validate:"required,min=1"`
	StockQty    int      `json:"stock_qty" validate:"gte=0"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// UpdateProductRequest carries partial updates for a listing.
type UpdateProductRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	PriceCents  *int      `json:"price_cents,omitempty" validate:"omitempty,gt=0"`
	Images      *[]string `json:"images,omitempty"`
	Sizes       *[]string `json:"sizes,omitempty" validate:"omitempty,min=1"`
	StockQty    *int      `json:"stock_qty,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

// CreateReviewRequest is the customer payload for a product review.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ListFilters narrows the storefront listing query.
type ListFilters struct {
	Query           string
	Category        *string
	IncludeInactive bool
}

func productFromModel(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       types.DollarsFromCents(p.PriceCents),
		PriceCents:  p.PriceCents,
		Images:      append([]string(nil), p.Images...),
		Sizes:       append([]string(nil), p.Sizes...),
		StockQty:    p.StockQty,
		SoldQty:     p.SoldQty,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func reviewFromModel(r *models.ProductReview) ReviewDTO {
	return ReviewDTO{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}
