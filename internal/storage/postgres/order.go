package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/minishop/internal/domain/order"
)

const (
	orderColumns = `id, user_id, order_number, status, payment_status, total_amount,
		shipping_address, notes, created_at, updated_at`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC, id`

	listAllOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		ORDER BY created_at DESC, id`

	getOrderLinesSQL = `SELECT id, product_id, product_name, price, quantity, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY id`

	getLinesForOrdersSQL = `SELECT order_id, id, product_id, product_name, price, quantity, subtotal
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`
)

// querier is the subset of pgx operations shared by pgxpool.Pool and pgx.Tx,
// letting order reads run either standalone or inside a workflow transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// GetByID returns a single order with its lines.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return getOrder(ctx, r.pool, id)
}

// ListByUser returns the user's orders with lines, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return listOrders(ctx, r.pool, listOrdersByUserSQL, userID)
}

// ListAll returns every order with lines, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	return listOrders(ctx, r.pool, listAllOrdersSQL)
}

func getOrder(ctx context.Context, q querier, id string) (*order.Order, error) {
	rows, err := q.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	lineRows, err := q.Query(ctx, getOrderLinesSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get lines for order %q", id)
	}
	o.Lines, err = pgx.CollectRows(lineRows, scanOrderLine)
	if err != nil {
		return nil, errors.Wrapf(err, "scan lines for order %q", id)
	}
	return &o, nil
}

func listOrders(ctx context.Context, q querier, sql string, args ...any) ([]order.Order, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}
	if len(orders) == 0 {
		return orders, nil
	}

	// Attach lines with one batched query instead of one per order.
	ids := make([]string, len(orders))
	byID := make(map[string]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	lineRows, err := q.Query(ctx, getLinesForOrdersSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "list order lines")
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var (
			orderID string
			l       order.Line
		)
		if err := lineRows.Scan(&orderID, &l.ID, &l.ProductID, &l.ProductName,
			&l.UnitPrice, &l.Quantity, &l.Subtotal); err != nil {
			return nil, errors.Wrap(err, "scan order line")
		}
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, l)
		}
	}
	if err := lineRows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate order lines")
	}
	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o              order.Order
		status, paySts string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Number, &status, &paySts, &o.TotalAmount,
		&o.ShippingAddress, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(paySts)
	return o, err
}

func scanOrderLine(row pgx.CollectableRow) (order.Line, error) {
	var l order.Line
	err := row.Scan(&l.ID, &l.ProductID, &l.ProductName, &l.UnitPrice, &l.Quantity, &l.Subtotal)
	return l, err
}
