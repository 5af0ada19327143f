package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/minishop/internal/domain/inventory"
	"github.com/xenking/minishop/internal/domain/product"
)

// Service encapsulates cart management logic. Stock checks here are advisory
// (a courtesy to the shopper); the order workflow re-validates everything
// under lock at placement time.
type Service struct {
	carts    Repository
	products product.Repository
}

// NewService creates a cart Service with the required dependencies.
func NewService(carts Repository, products product.Repository) *Service {
	return &Service{
		carts:    carts,
		products: products,
	}
}

// Get returns the user's cart, creating it on first access.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	return s.carts.GetByUser(ctx, userID)
}

// AddItem puts qty of the product into the user's cart after checking the
// product exists, is active, and has enough stock.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, &inventory.UnavailableError{ProductID: p.ID, Name: p.Name}
	}
	if p.Stock < qty {
		return nil, &inventory.InsufficientStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Available: p.Stock,
			Requested: qty,
		}
	}

	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if err := s.carts.AddLine(ctx, c.ID, productID, qty); err != nil {
		return nil, errors.Wrap(err, "add line")
	}
	return s.carts.GetByUser(ctx, userID)
}

// UpdateItem replaces the quantity of an existing cart line.
func (s *Service) UpdateItem(ctx context.Context, userID, productID string, qty int) (*Cart, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Stock < qty {
		return nil, &inventory.InsufficientStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Available: p.Stock,
			Requested: qty,
		}
	}

	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if err := s.carts.SetLineQuantity(ctx, c.ID, productID, qty); err != nil {
		return nil, err
	}
	return s.carts.GetByUser(ctx, userID)
}

// RemoveItem deletes the product's line from the user's cart.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*Cart, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if err := s.carts.RemoveLine(ctx, c.ID, productID); err != nil {
		return nil, err
	}
	return s.carts.GetByUser(ctx, userID)
}

// Clear empties the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "load cart")
	}
	return s.carts.Clear(ctx, c.ID)
}
