package order

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/minishop/internal/domain/inventory"
	"github.com/xenking/minishop/internal/domain/product"
)

// Status is the fulfillment state of an order.
//
// Transitions: pending -> paid -> shipped -> delivered, and
// pending|paid -> cancelled. Cancelled and delivered are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Sentinel errors for the order workflow.
var (
	ErrNotFound         = errors.New("order not found")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrNotOwner         = errors.New("order belongs to another user")
	ErrAlreadyCancelled = errors.New("order is already cancelled")
	ErrNotCancellable   = errors.New("order has been shipped or delivered and cannot be cancelled")
	ErrAlreadyProcessed = errors.New("payment has already been processed")
	ErrOrderCancelled   = errors.New("cannot process payment for a cancelled order")
	ErrPaymentFailed    = errors.New("payment processing failed")
	ErrInvalidStatus    = errors.New("invalid order status")
)

// Order is a placed order. Its lines snapshot product name and unit price at
// creation time; repricing the catalog never changes a historical order.
type Order struct {
	ID              string
	UserID          string
	Number          string
	Lines           []Line
	TotalAmount     decimal.Decimal
	Status          Status
	PaymentStatus   PaymentStatus
	ShippingAddress string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Line is a single order line. UnitPrice and ProductName are snapshots;
// Subtotal is round(UnitPrice * Quantity, 2).
type Line struct {
	ID          string
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Subtotal    decimal.Decimal
}

// Repository defines non-transactional order reads.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}

// Store provides the single atomic transaction every multi-step order
// mutation runs in. Implementations roll the whole transaction back when fn
// returns an error; no partial state is ever observable.
type Store interface {
	Transact(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of operations available inside one workflow transaction.
type Tx interface {
	inventory.Ledger

	// ProductForUpdate fetches a product with a row lock held until the
	// transaction ends, serializing concurrent reservations on it.
	ProductForUpdate(ctx context.Context, id string) (*product.Product, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	InsertOrder(ctx context.Context, o *Order) error
	SetOrderStatus(ctx context.Context, id string, status Status, at time.Time) error
	SetPaymentStatus(ctx context.Context, id string, ps PaymentStatus, status Status, at time.Time) error
	ClearCart(ctx context.Context, cartID string) error
	// RecordCancellation increments the user's cancellation counter and
	// stamps the cancellation time.
	RecordCancellation(ctx context.Context, userID string, at time.Time) error
	// RecordFailedOrder increments the user's failed-order counter.
	RecordFailedOrder(ctx context.Context, userID string) error
}

const numberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewNumber generates a human-readable order number such as
// ORD-MEB4Q0XK-7Q3F9A: a base-36 millisecond timestamp plus a random suffix.
func NewNumber(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	var suffix [6]byte
	for i := range suffix {
		suffix[i] = numberAlphabet[rand.IntN(len(numberAlphabet))]
	}
	return "ORD-" + ts + "-" + string(suffix[:])
}
