package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrStockNegative is returned when a catalog mutation would leave a product
// with negative stock.
var ErrStockNegative = errors.New("stock cannot be negative")

// ErrPriceNegative is returned when a catalog mutation carries a negative price.
var ErrPriceNegative = errors.New("price cannot be negative")

// Product represents a catalog item available for purchase. Stock is the
// number of units available for reservation; IsActive gates both catalog
// visibility and orderability.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Stock       int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filter narrows catalog listings.
type Filter struct {
	// Category, when non-empty, limits results to a single category.
	Category string
	// ActiveOnly limits results to active products. Public listings set
	// this; admin listings see everything.
	ActiveOnly bool
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	// AdjustStock atomically adds delta to the product's stock and returns
	// the updated product. It fails with ErrStockNegative when the result
	// would drop below zero.
	AdjustStock(ctx context.Context, id string, delta int) (*Product, error)
}
