package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/minishop/internal/auth"
	"github.com/xenking/minishop/internal/domain/cart"
	"github.com/xenking/minishop/internal/domain/fraud"
	"github.com/xenking/minishop/internal/domain/inventory"
	"github.com/xenking/minishop/internal/domain/order"
	"github.com/xenking/minishop/internal/domain/product"
	"github.com/xenking/minishop/internal/domain/user"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the {"code": ..., "message": ...} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// respondError maps a domain error onto an HTTP status and writes it.
// Unrecognized errors are logged and surfaced as opaque 500s.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if status, ok := errorStatus(err); ok {
		writeError(w, status, err.Error())
		return
	}

	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// errorStatus returns the HTTP status for a known domain error.
func errorStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		return http.StatusNotFound, true

	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrAlreadyCancelled),
		errors.Is(err, order.ErrNotCancellable),
		errors.Is(err, order.ErrAlreadyProcessed),
		errors.Is(err, order.ErrOrderCancelled),
		errors.Is(err, order.ErrPaymentFailed),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, product.ErrStockNegative),
		errors.Is(err, product.ErrPriceNegative):
		return http.StatusBadRequest, true

	case errors.Is(err, fraud.ErrAccountFlagged),
		errors.Is(err, order.ErrNotOwner):
		return http.StatusForbidden, true

	case errors.Is(err, user.ErrEmailTaken):
		return http.StatusConflict, true

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, true
	}

	var unavailable *inventory.UnavailableError
	if errors.As(err, &unavailable) {
		return http.StatusBadRequest, true
	}
	var insufficient *inventory.InsufficientStockError
	if errors.As(err, &insufficient) {
		return http.StatusBadRequest, true
	}

	return 0, false
}

// decodeBody decodes the JSON request body into dst, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}
