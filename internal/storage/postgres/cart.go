package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/minishop/internal/domain/cart"
	"github.com/xenking/minishop/internal/domain/product"
)

const (
	getCartSQL = `SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`

	insertCartSQL = `INSERT INTO carts (id, user_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`

	getCartLinesSQL = `SELECT ci.id, ci.product_id, ci.quantity, ci.created_at,
			p.id, p.name, p.description, p.category, p.price, p.stock, p.is_active, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at, ci.id`

	addCartLineSQL = `INSERT INTO cart_items (id, cart_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	setCartLineQtySQL = `UPDATE cart_items SET quantity = $3
		WHERE cart_id = $1 AND product_id = $2`

	removeCartLineSQL = `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	clearCartSQL = `DELETE FROM cart_items WHERE cart_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetByUser returns the user's cart with lines and their live products,
// creating an empty cart on first access.
func (r *CartRepository) GetByUser(ctx context.Context, userID string) (*cart.Cart, error) {
	c, err := r.getCartRow(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := r.pool.Exec(ctx, insertCartSQL, uuid.New().String(), userID); err != nil {
			return nil, errors.Wrap(err, "create cart")
		}
		c, err = r.getCartRow(ctx, userID)
		if err != nil {
			return nil, errors.Wrap(err, "reload cart")
		}
	} else if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	rows, err := r.pool.Query(ctx, getCartLinesSQL, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart lines")
	}
	c.Lines, err = pgx.CollectRows(rows, scanCartLine)
	if err != nil {
		return nil, errors.Wrap(err, "scan cart lines")
	}
	return c, nil
}

func (r *CartRepository) getCartRow(ctx context.Context, userID string) (*cart.Cart, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx, getCartSQL, userID).
		Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AddLine adds qty of the product to the cart, summing with any existing line.
func (r *CartRepository) AddLine(ctx context.Context, cartID, productID string, qty int) error {
	_, err := r.pool.Exec(ctx, addCartLineSQL, uuid.New().String(), cartID, productID, qty)
	if err != nil {
		return errors.Wrapf(err, "add line for product %q", productID)
	}
	return nil
}

// SetLineQuantity replaces an existing line's quantity.
func (r *CartRepository) SetLineQuantity(ctx context.Context, cartID, productID string, qty int) error {
	tag, err := r.pool.Exec(ctx, setCartLineQtySQL, cartID, productID, qty)
	if err != nil {
		return errors.Wrapf(err, "set quantity for product %q", productID)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

// RemoveLine deletes the product's line from the cart.
func (r *CartRepository) RemoveLine(ctx context.Context, cartID, productID string) error {
	tag, err := r.pool.Exec(ctx, removeCartLineSQL, cartID, productID)
	if err != nil {
		return errors.Wrapf(err, "remove line for product %q", productID)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

// Clear deletes every line from the cart.
func (r *CartRepository) Clear(ctx context.Context, cartID string) error {
	if _, err := r.pool.Exec(ctx, clearCartSQL, cartID); err != nil {
		return errors.Wrapf(err, "clear cart %q", cartID)
	}
	return nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var (
		l cart.Line
		p product.Product
	)
	err := row.Scan(
		&l.ID, &l.ProductID, &l.Quantity, &l.AddedAt,
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &p.Stock,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	l.Product = &p
	return l, err
}
