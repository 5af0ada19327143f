package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service encapsulates catalog management logic.
type Service struct {
	products Repository
	now      func() time.Time
}

// NewService creates a catalog Service backed by the given repository.
func NewService(products Repository) *Service {
	return &Service{
		products: products,
		now:      time.Now,
	}
}

// CreateParams holds the input for creating a catalog product.
type CreateParams struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
	IsActive    bool
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, in CreateParams) (*Product, error) {
	if in.Stock < 0 {
		return nil, ErrStockNegative
	}
	if in.Price.IsNegative() {
		return nil, ErrPriceNegative
	}

	now := s.now()
	p := &Product{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// UpdateParams holds the optional fields for a product update. Nil fields
// are left unchanged.
type UpdateParams struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	Stock       *int
	IsActive    *bool
}

// Update applies the non-nil fields of in to an existing product.
func (s *Service) Update(ctx context.Context, id string, in UpdateParams) (*Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, ErrPriceNegative
		}
		p.Price = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, ErrStockNegative
		}
		p.Stock = *in.Stock
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.UpdatedAt = s.now()

	if err := s.products.Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	return p, nil
}

// Delete removes a product from the catalog.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}

// Get returns a single product by ID.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.products.GetByID(ctx, id)
}

// List returns catalog products matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]Product, error) {
	return s.products.List(ctx, f)
}

// AdjustStock adds delta (which may be negative) to a product's stock.
func (s *Service) AdjustStock(ctx context.Context, id string, delta int) (*Product, error) {
	return s.products.AdjustStock(ctx, id, delta)
}
