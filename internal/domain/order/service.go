package order

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/minishop/internal/domain/cart"
	"github.com/xenking/minishop/internal/domain/fraud"
	"github.com/xenking/minishop/internal/domain/inventory"
	"github.com/xenking/minishop/internal/domain/user"
)

// Config tunes the order workflow. The zero value selects sane defaults.
type Config struct {
	// PaymentSuccessRate is the probability in [0,1] that a simulated
	// payment succeeds. Zero selects the default of 0.9.
	PaymentSuccessRate float64
	// Now supplies the current time. Defaults to time.Now.
	Now func() time.Time
	// Rand supplies the payment draw in [0,1). Defaults to math/rand/v2.
	Rand func() float64
	// TracerProvider and MeterProvider instrument the workflow. Nil selects
	// the otel globals, which are no-ops unless configured.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

const defaultPaymentSuccessRate = 0.9

// Service orchestrates order creation, cancellation, status changes, and
// payment simulation as transactional state transitions.
type Service struct {
	users       user.Repository
	carts       cart.Repository
	orders      Repository
	store       Store
	guard       *fraud.Guard
	successRate float64
	now         func() time.Time
	rand        func() float64

	tracer          trace.Tracer
	ordersPlaced    metric.Int64Counter
	ordersCancelled metric.Int64Counter
	payments        metric.Int64Counter
}

// NewService creates the order workflow Service.
func NewService(
	users user.Repository,
	carts cart.Repository,
	orders Repository,
	store Store,
	guard *fraud.Guard,
	cfg Config,
) *Service {
	s := &Service{
		users:       users,
		carts:       carts,
		orders:      orders,
		store:       store,
		guard:       guard,
		successRate: cfg.PaymentSuccessRate,
		now:         cfg.Now,
		rand:        cfg.Rand,
	}
	if s.successRate <= 0 {
		s.successRate = defaultPaymentSuccessRate
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rand == nil {
		s.rand = rand.Float64
	}

	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := cfg.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	s.tracer = tp.Tracer("minishop.order")
	meter := mp.Meter("minishop.order")
	s.ordersPlaced, _ = meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders placed successfully"))
	s.ordersCancelled, _ = meter.Int64Counter("orders.cancelled",
		metric.WithDescription("Orders cancelled"))
	s.payments, _ = meter.Int64Counter("orders.payments",
		metric.WithDescription("Payment attempts by outcome"))
	return s
}

// CreateRequest holds the input for placing an order.
type CreateRequest struct {
	UserID          string
	ShippingAddress string
	Notes           string
}

// CreateOrder places an order from the user's cart. It gates on the fraud
// guard, then inside a single transaction re-validates every cart line
// against the live product row (held under lock), snapshots name and price,
// reserves stock, persists the order, and clears the cart. Any failure rolls
// the whole transaction back: no stock moves, no order exists, the cart is
// untouched.
func (s *Service) CreateOrder(ctx context.Context, req CreateRequest) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.CreateOrder")
	defer span.End()

	u, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Evaluate(u.CancelledOrders, u.LastCancellationAt, s.now()); err != nil {
		return nil, err
	}

	c, err := s.carts.GetByUser(ctx, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if len(c.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	now := s.now()
	o := &Order{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		Number:          NewNumber(now),
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.store.Transact(ctx, func(tx Tx) error {
		total := decimal.Zero
		for _, line := range c.Lines {
			p, err := tx.ProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if !p.IsActive {
				return &inventory.UnavailableError{ProductID: p.ID, Name: p.Name}
			}
			if p.Stock < line.Quantity {
				return &inventory.InsufficientStockError{
					ProductID: p.ID,
					Name:      p.Name,
					Available: p.Stock,
					Requested: line.Quantity,
				}
			}

			subtotal := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
			total = total.Add(subtotal)
			o.Lines = append(o.Lines, Line{
				ID:          uuid.New().String(),
				ProductID:   p.ID,
				ProductName: p.Name,
				UnitPrice:   p.Price,
				Quantity:    line.Quantity,
				Subtotal:    subtotal,
			})

			if err := tx.Reserve(ctx, p.ID, line.Quantity); err != nil {
				return err
			}
		}
		o.TotalAmount = total

		if err := tx.InsertOrder(ctx, o); err != nil {
			return errors.Wrap(err, "insert order")
		}
		if err := tx.ClearCart(ctx, c.ID); err != nil {
			return errors.Wrap(err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.ordersPlaced.Add(ctx, 1)
	span.SetAttributes(attribute.Int("order.lines", len(o.Lines)))
	return o, nil
}

// CancelOrder cancels the user's own order, atomically releasing every
// line's stock, marking the order cancelled, and recording the cancellation
// against the account.
func (s *Service) CancelOrder(ctx context.Context, orderID, userID string) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.CancelOrder")
	defer span.End()

	var out *Order
	err := s.store.Transact(ctx, func(tx Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			return ErrNotOwner
		}
		if err := s.cancel(ctx, tx, o); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.ordersCancelled.Add(ctx, 1)
	return out, nil
}

// cancel applies the cancel transition to an order loaded in tx. It is the
// single code path for cancellation: CancelOrder and UpdateOrderStatus both
// route through it so stock release and fraud counters never diverge.
func (s *Service) cancel(ctx context.Context, tx Tx, o *Order) error {
	switch o.Status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusShipped, StatusDelivered:
		return ErrNotCancellable
	}

	for _, line := range o.Lines {
		if err := tx.Release(ctx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}

	now := s.now()
	if err := tx.SetOrderStatus(ctx, o.ID, StatusCancelled, now); err != nil {
		return err
	}
	if err := tx.RecordCancellation(ctx, o.UserID, now); err != nil {
		return err
	}
	o.Status = StatusCancelled
	o.UpdatedAt = now
	return nil
}

// UpdateOrderStatus overwrites an order's status (admin capability). A
// transition into cancelled goes through the same cancel transition as
// CancelOrder, including stock release and counter bookkeeping.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var out *Order
	err := s.store.Transact(ctx, func(tx Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}

		if status == StatusCancelled {
			if err := s.cancel(ctx, tx, o); err != nil {
				return err
			}
		} else {
			now := s.now()
			if err := tx.SetOrderStatus(ctx, o.ID, status, now); err != nil {
				return err
			}
			o.Status = status
			o.UpdatedAt = now
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	if status == StatusCancelled {
		s.ordersCancelled.Add(ctx, 1)
	}
	return out, nil
}

// PaymentOptions tunes a single ProcessPayment call.
type PaymentOptions struct {
	// Outcome forces the payment result instead of drawing from the random
	// source. Used by the admin simulation endpoint.
	Outcome *bool
	// SkipOwnerCheck allows processing a payment on behalf of any user.
	// Only the admin surface sets this.
	SkipOwnerCheck bool
}

// ProcessPayment simulates payment for an order. On success it atomically
// marks the payment completed and the order paid. On failure it commits the
// failed payment status (order status unchanged), bumps the account's
// failed-order counter, and returns ErrPaymentFailed.
func (s *Service) ProcessPayment(ctx context.Context, orderID, userID string, opts PaymentOptions) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.ProcessPayment")
	defer span.End()

	var (
		out    *Order
		failed bool
	)
	err := s.store.Transact(ctx, func(tx Tx) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !opts.SkipOwnerCheck && o.UserID != userID {
			return ErrNotOwner
		}
		if o.PaymentStatus == PaymentCompleted {
			return ErrAlreadyProcessed
		}
		if o.Status == StatusCancelled {
			return ErrOrderCancelled
		}

		success := s.rand() < s.successRate
		if opts.Outcome != nil {
			success = *opts.Outcome
		}

		now := s.now()
		if success {
			if err := tx.SetPaymentStatus(ctx, o.ID, PaymentCompleted, StatusPaid, now); err != nil {
				return err
			}
			o.PaymentStatus = PaymentCompleted
			o.Status = StatusPaid
		} else {
			// The failed payment status must commit: the error is
			// surfaced after the transaction, not through it.
			if err := tx.SetPaymentStatus(ctx, o.ID, PaymentFailed, o.Status, now); err != nil {
				return err
			}
			if err := tx.RecordFailedOrder(ctx, o.UserID); err != nil {
				return err
			}
			o.PaymentStatus = PaymentFailed
			failed = true
		}
		o.UpdatedAt = now
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.payments.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", !failed)))
	if failed {
		return out, ErrPaymentFailed
	}
	return out, nil
}

// ListOrders returns the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// GetOrder returns a single order, enforcing ownership.
func (s *Service) GetOrder(ctx context.Context, orderID, userID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrNotOwner
	}
	return o, nil
}

// ListAllOrders returns every order (admin capability).
func (s *Service) ListAllOrders(ctx context.Context) ([]Order, error) {
	return s.orders.ListAll(ctx)
}

// GetOrderAdmin returns any order without an ownership check.
func (s *Service) GetOrderAdmin(ctx context.Context, orderID string) (*Order, error) {
	return s.orders.GetByID(ctx, orderID)
}
