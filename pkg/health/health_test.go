package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, fn http.HandlerFunc) (int, probeResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	fn(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var resp probeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestLiveEndpointHealthy(t *testing.T) {
	h := New()
	h.AddLivenessCheck("noop", time.Second, func(context.Context) error { return nil })

	code, resp := probe(t, h.LiveEndpoint)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", resp.Status)
}

func TestLiveEndpointReportsFailure(t *testing.T) {
	h := New()
	h.AddLivenessCheck("broken", time.Second, func(context.Context) error {
		return errors.New("disk is down")
	})

	code, resp := probe(t, h.LiveEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "unhealthy", resp.Status)
	require.Contains(t, resp.Checks, "broken")
}

func TestReadyEndpointGatedBySetReady(t *testing.T) {
	h := New()

	code, _ := probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, code)

	h.SetReady(true)
	code, resp := probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ok", resp.Status)

	h.SetReady(false)
	code, _ = probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReadyEndpointRunsChecks(t *testing.T) {
	h := New()
	h.SetReady(true)
	failing := true
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		if failing {
			return errors.New("connection refused")
		}
		return nil
	})

	code, resp := probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "connection refused", resp.Checks["db"])

	failing = false
	code, _ = probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusOK, code)
}

func TestCheckTimeoutApplies(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	start := time.Now()
	code, _ := probe(t, h.ReadyEndpoint)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
}
