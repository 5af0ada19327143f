// Package inventory defines the stock reservation contract shared by the
// order workflow and its storage backend.
package inventory

import (
	"context"
	"fmt"
)

// Ledger owns per-product stock counts. Implementations must serialize
// concurrent reservations on the same product so that two reservations for
// the last unit can never both succeed, and stock never goes negative.
// Reservations on different products must not block each other.
type Ledger interface {
	// Reserve atomically decrements the product's stock by qty. It fails
	// with product.ErrNotFound, an *UnavailableError, or an
	// *InsufficientStockError, leaving stock unchanged.
	Reserve(ctx context.Context, productID string, qty int) error
	// Release atomically increments the product's stock by qty. It is the
	// caller's responsibility to never release more than was reserved;
	// no upper bound is enforced here.
	Release(ctx context.Context, productID string, qty int) error
}

// UnavailableError indicates a reservation against an inactive product.
type UnavailableError struct {
	ProductID string
	Name      string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("product %q is no longer available", e.Name)
}

// InsufficientStockError indicates a reservation exceeding available stock.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: only %d items available", e.Name, e.Available)
}
