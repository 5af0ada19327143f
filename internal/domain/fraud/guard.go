// Package fraud implements the cancellation-history gate applied before
// order placement. The policy is a pure function of the account's counters
// and the current time; it performs no I/O.
package fraud

import (
	"time"

	"github.com/go-faster/errors"
)

// ErrAccountFlagged is returned when an account is blocked from placing
// orders due to repeated cancellations.
var ErrAccountFlagged = errors.New("account flagged for repeated cancellations")

// Config holds the tunable policy knobs.
type Config struct {
	// MaxCancelledOrders is the cancellation count at which an account is
	// flagged. Zero selects the default of 5.
	MaxCancelledOrders int
	// CooldownWindow bounds how recent the last cancellation must be for
	// the flag to apply. Zero selects the default of 30 days; a negative
	// value disables the recency check entirely, denying on count alone.
	CooldownWindow time.Duration
}

const (
	defaultMaxCancelledOrders = 5
	defaultCooldownWindow     = 30 * 24 * time.Hour
)

// Guard evaluates an account's cancellation history against the policy.
type Guard struct {
	maxCancelled int
	cooldown     time.Duration
}

// NewGuard creates a Guard, applying defaults for unset config fields.
func NewGuard(cfg Config) *Guard {
	g := &Guard{
		maxCancelled: cfg.MaxCancelledOrders,
		cooldown:     cfg.CooldownWindow,
	}
	if g.maxCancelled <= 0 {
		g.maxCancelled = defaultMaxCancelledOrders
	}
	if g.cooldown == 0 {
		g.cooldown = defaultCooldownWindow
	}
	return g
}

// Evaluate returns ErrAccountFlagged when the account has reached the
// cancellation threshold and the last cancellation falls inside the cooldown
// window of now. With the recency check disabled the threshold alone denies.
func (g *Guard) Evaluate(cancelledOrders int, lastCancellationAt *time.Time, now time.Time) error {
	if cancelledOrders < g.maxCancelled {
		return nil
	}
	if g.cooldown < 0 {
		return ErrAccountFlagged
	}
	if lastCancellationAt == nil {
		return nil
	}
	if now.Sub(*lastCancellationAt) < g.cooldown {
		return ErrAccountFlagged
	}
	return nil
}
