package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/minishop/internal/domain/inventory"
	"github.com/xenking/minishop/internal/domain/order"
	"github.com/xenking/minishop/internal/domain/product"
)

const (
	productForUpdateSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	reserveStockSQL = `UPDATE products
		SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND is_active AND stock >= $2`

	releaseStockSQL = `UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1`

	probeProductSQL = `SELECT name, stock, is_active FROM products WHERE id = $1`

	insertOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	insertOrderLineSQL = `INSERT INTO order_items (id, order_id, product_id, product_name, price, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	setOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	setPaymentStatusSQL = `UPDATE orders
		SET payment_status = $2, status = $3, updated_at = $4
		WHERE id = $1`

	recordCancellationSQL = `UPDATE users
		SET cancelled_orders_count = cancelled_orders_count + 1,
		    last_cancellation_date = $2, updated_at = $2
		WHERE id = $1`

	recordFailedOrderSQL = `UPDATE users
		SET failed_orders = failed_orders + 1, updated_at = now()
		WHERE id = $1`
)

var _ order.Store = (*Store)(nil)

// Store implements order.Store: every workflow mutation runs in one database
// transaction with row-level locking on products.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store that uses the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Transact runs fn inside a single transaction, committing when fn returns
// nil and rolling back otherwise.
func (s *Store) Transact(ctx context.Context, fn func(tx order.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&storeTx{tx: tx})
	})
}

// storeTx implements order.Tx over one open pgx transaction.
type storeTx struct {
	tx pgx.Tx
}

// ProductForUpdate fetches a product holding its row lock for the rest of
// the transaction.
func (t *storeTx) ProductForUpdate(ctx context.Context, id string) (*product.Product, error) {
	rows, err := t.tx.Query(ctx, productForUpdateSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "lock product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "lock product %q", id)
	}
	return &p, nil
}

// Reserve decrements stock with a conditional update; the guard in the WHERE
// clause keeps stock from ever going negative even under concurrency.
func (t *storeTx) Reserve(ctx context.Context, productID string, qty int) error {
	tag, err := t.tx.Exec(ctx, reserveStockSQL, productID, qty)
	if err != nil {
		return errors.Wrapf(err, "reserve %d of product %q", qty, productID)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	return t.reserveFailure(ctx, productID, qty)
}

// reserveFailure probes the product row to turn a zero-row reserve into the
// right typed error.
func (t *storeTx) reserveFailure(ctx context.Context, productID string, qty int) error {
	var (
		name     string
		stock    int
		isActive bool
	)
	err := t.tx.QueryRow(ctx, probeProductSQL, productID).Scan(&name, &stock, &isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.ErrNotFound
		}
		return errors.Wrapf(err, "probe product %q", productID)
	}
	if !isActive {
		return &inventory.UnavailableError{ProductID: productID, Name: name}
	}
	return &inventory.InsufficientStockError{
		ProductID: productID,
		Name:      name,
		Available: stock,
		Requested: qty,
	}
}

// Release increments stock unconditionally; the caller guarantees release
// never exceeds what was reserved.
func (t *storeTx) Release(ctx context.Context, productID string, qty int) error {
	tag, err := t.tx.Exec(ctx, releaseStockSQL, productID, qty)
	if err != nil {
		return errors.Wrapf(err, "release %d of product %q", qty, productID)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// GetOrder loads an order with its lines inside the transaction.
func (t *storeTx) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	return getOrder(ctx, t.tx, id)
}

// InsertOrder persists an order and its lines.
func (t *storeTx) InsertOrder(ctx context.Context, o *order.Order) error {
	_, err := t.tx.Exec(ctx, insertOrderSQL,
		o.ID, o.UserID, o.Number, string(o.Status), string(o.PaymentStatus),
		o.TotalAmount, o.ShippingAddress, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID)
	}

	for _, l := range o.Lines {
		_, err := t.tx.Exec(ctx, insertOrderLineSQL,
			l.ID, o.ID, l.ProductID, l.ProductName, l.UnitPrice, l.Quantity, l.Subtotal,
		)
		if err != nil {
			return errors.Wrapf(err, "insert line for product %q", l.ProductID)
		}
	}
	return nil
}

// SetOrderStatus overwrites an order's status.
func (t *storeTx) SetOrderStatus(ctx context.Context, id string, status order.Status, at time.Time) error {
	tag, err := t.tx.Exec(ctx, setOrderStatusSQL, id, string(status), at)
	if err != nil {
		return errors.Wrapf(err, "set status of order %q", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// SetPaymentStatus overwrites an order's payment status and status together.
func (t *storeTx) SetPaymentStatus(ctx context.Context, id string, ps order.PaymentStatus, status order.Status, at time.Time) error {
	tag, err := t.tx.Exec(ctx, setPaymentStatusSQL, id, string(ps), string(status), at)
	if err != nil {
		return errors.Wrapf(err, "set payment status of order %q", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// ClearCart deletes every line of the cart.
func (t *storeTx) ClearCart(ctx context.Context, cartID string) error {
	if _, err := t.tx.Exec(ctx, clearCartSQL, cartID); err != nil {
		return errors.Wrapf(err, "clear cart %q", cartID)
	}
	return nil
}

// RecordCancellation bumps the user's cancellation counter and stamps the
// cancellation time.
func (t *storeTx) RecordCancellation(ctx context.Context, userID string, at time.Time) error {
	if _, err := t.tx.Exec(ctx, recordCancellationSQL, userID, at); err != nil {
		return errors.Wrapf(err, "record cancellation for user %q", userID)
	}
	return nil
}

// RecordFailedOrder bumps the user's failed-order counter.
func (t *storeTx) RecordFailedOrder(ctx context.Context, userID string) error {
	if _, err := t.tx.Exec(ctx, recordFailedOrderSQL, userID); err != nil {
		return errors.Wrapf(err, "record failed order for user %q", userID)
	}
	return nil
}
