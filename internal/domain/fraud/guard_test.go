package fraud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGuardUnderThresholdAllows(t *testing.T) {
	g := NewGuard(Config{})
	now := time.Now()
	recent := now.Add(-24 * time.Hour)

	require.NoError(t, g.Evaluate(0, nil, now))
	require.NoError(t, g.Evaluate(4, &recent, now))
}

func TestGuardRecentCancellationsDeny(t *testing.T) {
	g := NewGuard(Config{})
	now := time.Now()
	recent := now.Add(-24 * time.Hour)

	err := g.Evaluate(5, &recent, now)
	require.ErrorIs(t, err, ErrAccountFlagged)

	err = g.Evaluate(12, &recent, now)
	require.ErrorIs(t, err, ErrAccountFlagged)
}

func TestGuardStaleCancellationAllows(t *testing.T) {
	g := NewGuard(Config{})
	now := time.Now()
	stale := now.Add(-40 * 24 * time.Hour)

	require.NoError(t, g.Evaluate(5, &stale, now))
	// Counter over threshold but no recorded cancellation time.
	require.NoError(t, g.Evaluate(5, nil, now))
}

func TestGuardCountOnlyMode(t *testing.T) {
	g := NewGuard(Config{CooldownWindow: -1})
	now := time.Now()
	stale := now.Add(-365 * 24 * time.Hour)

	require.NoError(t, g.Evaluate(4, &stale, now))
	require.ErrorIs(t, g.Evaluate(5, &stale, now), ErrAccountFlagged)
	require.ErrorIs(t, g.Evaluate(5, nil, now), ErrAccountFlagged)
}

func TestGuardCustomThreshold(t *testing.T) {
	g := NewGuard(Config{MaxCancelledOrders: 2, CooldownWindow: time.Hour})
	now := time.Now()
	recent := now.Add(-10 * time.Minute)
	old := now.Add(-2 * time.Hour)

	require.NoError(t, g.Evaluate(1, &recent, now))
	require.ErrorIs(t, g.Evaluate(2, &recent, now), ErrAccountFlagged)
	require.NoError(t, g.Evaluate(2, &old, now))
}
