package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/minishop/internal/domain/product"
)

var (
	// ErrLineNotFound is returned when a referenced line is not in the cart.
	ErrLineNotFound = errors.New("item not found in cart")
	// ErrInvalidQuantity is returned for non-positive line quantities.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Cart is a user's mutable shopping cart. It is created lazily on first
// access and lives for the lifetime of the account: order placement empties
// it, never deletes it.
type Cart struct {
	ID        string
	UserID    string
	Lines     []Line
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Line is a single (product, quantity) entry in a cart. Product carries the
// live catalog row for display purposes; order placement re-fetches it under
// lock and must never trust this copy.
type Line struct {
	ID        string
	ProductID string
	Quantity  int
	Product   *product.Product
	AddedAt   time.Time
}

// Repository defines persistence operations for carts.
type Repository interface {
	// GetByUser returns the user's cart with its lines and their products,
	// creating an empty cart when none exists yet.
	GetByUser(ctx context.Context, userID string) (*Cart, error)
	// AddLine adds qty of the product to the cart, summing quantities when
	// a line for the product already exists.
	AddLine(ctx context.Context, cartID, productID string, qty int) error
	// SetLineQuantity replaces the quantity of an existing line. It fails
	// with ErrLineNotFound when the product has no line in the cart.
	SetLineQuantity(ctx context.Context, cartID, productID string, qty int) error
	// RemoveLine deletes the product's line from the cart. It fails with
	// ErrLineNotFound when no such line exists.
	RemoveLine(ctx context.Context, cartID, productID string) error
	// Clear deletes every line, leaving the cart itself in place.
	Clear(ctx context.Context, cartID string) error
}
