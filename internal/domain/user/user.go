package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Role controls which API surface an account may use.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering with an email that is
	// already in use.
	ErrEmailTaken = errors.New("email already registered")
)

// User is a registered account. FailedOrders and CancelledOrders are
// monotonic counters maintained by the order workflow and consumed by the
// fraud guard; they are reset only by out-of-band admin action.
type User struct {
	ID                 string
	Email              string
	PasswordHash       string
	FirstName          string
	LastName           string
	Role               Role
	IsActive           bool
	FailedOrders       int
	CancelledOrders    int
	LastCancellationAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Repository defines persistence operations for user accounts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
}
