package order

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/minishop/internal/domain/cart"
	"github.com/xenking/minishop/internal/domain/inventory"
	"github.com/xenking/minishop/internal/domain/product"
	"github.com/xenking/minishop/internal/domain/user"
)

// backend is an in-memory stand-in for the postgres layer. Transact snapshots
// all state up front and restores it when fn fails, giving the same
// all-or-nothing semantics the service relies on. The mutex serializes
// transactions the way row locks do.
type backend struct {
	mu       sync.Mutex
	users    map[string]*user.User
	products map[string]*product.Product
	carts    map[string]*cart.Cart // keyed by user ID
	orders   map[string]*Order
}

func newBackend() *backend {
	return &backend{
		users:    make(map[string]*user.User),
		products: make(map[string]*product.Product),
		carts:    make(map[string]*cart.Cart),
		orders:   make(map[string]*Order),
	}
}

func cloneUser(u *user.User) *user.User {
	c := *u
	if u.LastCancellationAt != nil {
		t := *u.LastCancellationAt
		c.LastCancellationAt = &t
	}
	return &c
}

func cloneProduct(p *product.Product) *product.Product {
	c := *p
	return &c
}

func cloneCart(c *cart.Cart) *cart.Cart {
	cp := *c
	cp.Lines = append([]cart.Line(nil), c.Lines...)
	return &cp
}

func cloneOrder(o *Order) *Order {
	c := *o
	c.Lines = append([]Line(nil), o.Lines...)
	return &c
}

type snapshot struct {
	users    map[string]*user.User
	products map[string]*product.Product
	carts    map[string]*cart.Cart
	orders   map[string]*Order
}

func (b *backend) snapshot() snapshot {
	s := snapshot{
		users:    make(map[string]*user.User, len(b.users)),
		products: make(map[string]*product.Product, len(b.products)),
		carts:    make(map[string]*cart.Cart, len(b.carts)),
		orders:   make(map[string]*Order, len(b.orders)),
	}
	for k, v := range b.users {
		s.users[k] = cloneUser(v)
	}
	for k, v := range b.products {
		s.products[k] = cloneProduct(v)
	}
	for k, v := range b.carts {
		s.carts[k] = cloneCart(v)
	}
	for k, v := range b.orders {
		s.orders[k] = cloneOrder(v)
	}
	return s
}

func (b *backend) Transact(_ context.Context, fn func(tx Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := b.snapshot()
	if err := fn(&memTx{b: b}); err != nil {
		b.users, b.products, b.carts, b.orders = snap.users, snap.products, snap.carts, snap.orders
		return err
	}
	return nil
}

// memTx runs against the backend maps while Transact holds the lock.
type memTx struct {
	b *backend
}

func (t *memTx) ProductForUpdate(_ context.Context, id string) (*product.Product, error) {
	p, ok := t.b.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (t *memTx) Reserve(_ context.Context, productID string, qty int) error {
	p, ok := t.b.products[productID]
	if !ok {
		return product.ErrNotFound
	}
	if !p.IsActive {
		return &inventory.UnavailableError{ProductID: p.ID, Name: p.Name}
	}
	if p.Stock < qty {
		return &inventory.InsufficientStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Available: p.Stock,
			Requested: qty,
		}
	}
	p.Stock -= qty
	return nil
}

func (t *memTx) Release(_ context.Context, productID string, qty int) error {
	p, ok := t.b.products[productID]
	if !ok {
		return product.ErrNotFound
	}
	p.Stock += qty
	return nil
}

func (t *memTx) GetOrder(_ context.Context, id string) (*Order, error) {
	o, ok := t.b.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (t *memTx) InsertOrder(_ context.Context, o *Order) error {
	t.b.orders[o.ID] = cloneOrder(o)
	return nil
}

func (t *memTx) SetOrderStatus(_ context.Context, id string, status Status, at time.Time) error {
	o, ok := t.b.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	return nil
}

func (t *memTx) SetPaymentStatus(_ context.Context, id string, ps PaymentStatus, status Status, at time.Time) error {
	o, ok := t.b.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.PaymentStatus = ps
	o.Status = status
	o.UpdatedAt = at
	return nil
}

func (t *memTx) ClearCart(_ context.Context, cartID string) error {
	for _, c := range t.b.carts {
		if c.ID == cartID {
			c.Lines = nil
		}
	}
	return nil
}

func (t *memTx) RecordCancellation(_ context.Context, userID string, at time.Time) error {
	u, ok := t.b.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.CancelledOrders++
	ts := at
	u.LastCancellationAt = &ts
	return nil
}

func (t *memTx) RecordFailedOrder(_ context.Context, userID string) error {
	u, ok := t.b.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.FailedOrders++
	return nil
}

// usersView adapts the backend to user.Repository.
type usersView struct {
	b *backend
}

func (v *usersView) GetByID(_ context.Context, id string) (*user.User, error) {
	v.b.mu.Lock()
	defer v.b.mu.Unlock()
	u, ok := v.b.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return cloneUser(u), nil
}

func (v *usersView) GetByEmail(_ context.Context, email string) (*user.User, error) {
	v.b.mu.Lock()
	defer v.b.mu.Unlock()
	for _, u := range v.b.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (v *usersView) Create(_ context.Context, u *user.User) error {
	v.b.mu.Lock()
	defer v.b.mu.Unlock()
	v.b.users[u.ID] = cloneUser(u)
	return nil
}

// cartsView adapts the backend to cart.Repository.
type cartsView struct {
	b *backend
}

func (v *cartsView) GetByUser(_ context.Context, userID string) (*cart.Cart, error) {
	v.b.mu.Lock()
	defer v.b.mu.Unlock()
	c, ok := v.b.carts[userID]
	if !ok {
		c = &cart.Cart{ID: "cart-" + userID, UserID: userID}
		v.b.carts[userID] = c
	}
	return cloneCart(c), nil
}

func (v *cartsView) AddLine(_ context.Context, cartID, productID string, qty int) error {
	v.b.mu.Lock()
	defer v.b.mu.Unlock()
	for _, c := range v.b.carts {
		if c.ID != cartID {
			continue
		}
		for i := range c.Lines {
			if c.Lines[i].ProductID == productID {
				c.Lines[i].Quantity += qty
				return nil
			}
		}
		c.Lines = append(c.Lines, cart.Line{ProductID: productID, Quantity: qty})
		return nil
	}
	return cart.ErrLineNotFound
}

func (v *cartsView) SetLineQuantity(_ context.Context, cartID, productID string, qty int) error {
	v.b.mu.Lock()
	defer v.b.mu.Unlock()
	for _, c := range v.b.carts {
		if c.ID != cartID {
			continue
		}
		for i := range c.Lines {
			if c.Lines[i].ProductID == productID {
				c.Lines[i].Quantity = qty
				return nil
			}
		}
	}
	return cart.ErrLineNotFound
}

func (v *cartsView) RemoveLine(_ context.Context, cartID, productID string) error {
	v.b.mu.Lock()
	defer v.b.mu.Unlock()
	for _, c := range v.b.carts {
		if c.ID != cartID {
			continue
		}
		for i := range c.Lines {
			if c.Lines[i].ProductID == productID {
				c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
				return nil
			}
		}
	}
	return cart.ErrLineNotFound
}

func (v *cartsView) Clear(_ context.Context, cartID string) error {
	v.b.mu.Lock()
	defer v.b.mu.Unlock()
	for _, c := range v.b.carts {
		if c.ID == cartID {
			c.Lines = nil
		}
	}
	return nil
}

// ordersView adapts the backend to Repository.
type ordersView struct {
	b *backend
}

func (v *ordersView) GetByID(_ context.Context, id string) (*Order, error) {
	v.b.mu.Lock()
	defer v.b.mu.Unlock()
	o, ok := v.b.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (v *ordersView) ListByUser(_ context.Context, userID string) ([]Order, error) {
	v.b.mu.Lock()
	defer v.b.mu.Unlock()
	var out []Order
	for _, o := range v.b.orders {
		if o.UserID == userID {
			out = append(out, *cloneOrder(o))
		}
	}
	return out, nil
}

func (v *ordersView) ListAll(_ context.Context) ([]Order, error) {
	v.b.mu.Lock()
	defer v.b.mu.Unlock()
	var out []Order
	for _, o := range v.b.orders {
		out = append(out, *cloneOrder(o))
	}
	return out, nil
}

// Interface compliance checks.
var (
	_ Store           = (*backend)(nil)
	_ Tx              = (*memTx)(nil)
	_ user.Repository = (*usersView)(nil)
	_ cart.Repository = (*cartsView)(nil)
	_ Repository      = (*ordersView)(nil)
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
