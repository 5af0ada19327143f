package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/xenking/minishop/internal/domain/inventory"
	"github.com/xenking/minishop/internal/domain/product"
)

// memCarts is an in-memory cart Repository keyed by user ID.
type memCarts struct {
	carts map[string]*Cart
}

func newMemCarts() *memCarts {
	return &memCarts{carts: make(map[string]*Cart)}
}

func (m *memCarts) GetByUser(_ context.Context, userID string) (*Cart, error) {
	c, ok := m.carts[userID]
	if !ok {
		c = &Cart{ID: "cart-" + userID, UserID: userID}
		m.carts[userID] = c
	}
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	return &cp, nil
}

func (m *memCarts) byID(cartID string) *Cart {
	for _, c := range m.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (m *memCarts) AddLine(_ context.Context, cartID, productID string, qty int) error {
	c := m.byID(cartID)
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity += qty
			return nil
		}
	}
	c.Lines = append(c.Lines, Line{ID: "line-" + productID, ProductID: productID, Quantity: qty})
	return nil
}

func (m *memCarts) SetLineQuantity(_ context.Context, cartID, productID string, qty int) error {
	c := m.byID(cartID)
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = qty
			return nil
		}
	}
	return ErrLineNotFound
}

func (m *memCarts) RemoveLine(_ context.Context, cartID, productID string) error {
	c := m.byID(cartID)
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

func (m *memCarts) Clear(_ context.Context, cartID string) error {
	if c := m.byID(cartID); c != nil {
		c.Lines = nil
	}
	return nil
}

// memProducts is a minimal product.Repository for cart tests.
type memProducts struct {
	products map[string]*product.Product
}

func (m *memProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) List(context.Context, product.Filter) ([]product.Product, error) {
	return nil, nil
}
func (m *memProducts) Create(context.Context, *product.Product) error  { return nil }
func (m *memProducts) Update(context.Context, *product.Product) error  { return nil }
func (m *memProducts) Delete(context.Context, string) error            { return nil }
func (m *memProducts) AdjustStock(context.Context, string, int) (*product.Product, error) {
	return nil, nil
}

var (
	_ Repository         = (*memCarts)(nil)
	_ product.Repository = (*memProducts)(nil)
)

func newCartService(products ...*product.Product) (*Service, *memCarts) {
	mp := &memProducts{products: make(map[string]*product.Product)}
	for _, p := range products {
		mp.products[p.ID] = p
	}
	mc := newMemCarts()
	return NewService(mc, mp), mc
}

func catalogProduct(id string, stock int, active bool) *product.Product {
	return &product.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.RequireFromString("9.99"),
		Stock:    stock,
		IsActive: active,
	}
}

func TestGetCreatesEmptyCart(t *testing.T) {
	svc, _ := newCartService()

	c, err := svc.Get(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", c.UserID)
	require.Empty(t, c.Lines)
}

func TestAddItemSumsQuantities(t *testing.T) {
	svc, _ := newCartService(catalogProduct("p1", 10, true))

	_, err := svc.AddItem(context.Background(), "alice", "p1", 2)
	require.NoError(t, err)

	c, err := svc.AddItem(context.Background(), "alice", "p1", 3)
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	require.Equal(t, 5, c.Lines[0].Quantity)
}

func TestAddItemValidation(t *testing.T) {
	svc, _ := newCartService(
		catalogProduct("p1", 2, true),
		catalogProduct("p2", 5, false),
	)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "alice", "p1", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, "alice", "missing", 1)
	require.ErrorIs(t, err, product.ErrNotFound)

	var unavailable *inventory.UnavailableError
	_, err = svc.AddItem(ctx, "alice", "p2", 1)
	require.ErrorAs(t, err, &unavailable)

	var insufficient *inventory.InsufficientStockError
	_, err = svc.AddItem(ctx, "alice", "p1", 3)
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 2, insufficient.Available)
}

func TestUpdateItemReplacesQuantity(t *testing.T) {
	svc, _ := newCartService(catalogProduct("p1", 10, true))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "alice", "p1", 2)
	require.NoError(t, err)

	c, err := svc.UpdateItem(ctx, "alice", "p1", 7)
	require.NoError(t, err)
	require.Equal(t, 7, c.Lines[0].Quantity)

	_, err = svc.UpdateItem(ctx, "alice", "p1", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.UpdateItem(ctx, "alice", "p1", 11)
	var insufficient *inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
}

func TestUpdateItemMissingLine(t *testing.T) {
	svc, _ := newCartService(catalogProduct("p1", 10, true))

	_, err := svc.UpdateItem(context.Background(), "alice", "p1", 1)
	require.ErrorIs(t, err, ErrLineNotFound)
}

func TestRemoveItem(t *testing.T) {
	svc, _ := newCartService(catalogProduct("p1", 10, true))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "alice", "p1", 2)
	require.NoError(t, err)

	c, err := svc.RemoveItem(ctx, "alice", "p1")
	require.NoError(t, err)
	require.Empty(t, c.Lines)

	_, err = svc.RemoveItem(ctx, "alice", "p1")
	require.ErrorIs(t, err, ErrLineNotFound)
}

func TestClear(t *testing.T) {
	svc, mc := newCartService(catalogProduct("p1", 10, true), catalogProduct("p2", 10, true))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "alice", "p1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "alice", "p2", 1)
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "alice"))
	require.Empty(t, mc.carts["alice"].Lines)
}
