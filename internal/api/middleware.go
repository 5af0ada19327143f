package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/xenking/minishop/internal/auth"
)

// identityKey is the context key for the authenticated caller.
type identityKey struct{}

// identityFrom extracts the authenticated identity from the context.
func identityFrom(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*auth.Identity)
	return id, ok
}

// authenticated wraps a handler with Bearer token verification, storing the
// caller identity in the request context.
func (h *Handler) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		id, err := h.tokens.Verify(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// admin wraps a handler with authentication plus an admin role check.
func (h *Handler) admin(next http.HandlerFunc) http.Handler {
	return h.authenticated(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok || !id.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// optionalIdentity verifies a bearer token when one is present on an
// otherwise public route. It returns nil for anonymous or invalid callers.
func (h *Handler) optionalIdentity(r *http.Request) *auth.Identity {
	raw, ok := bearerToken(r)
	if !ok {
		return nil
	}
	id, err := h.tokens.Verify(raw)
	if err != nil {
		return nil
	}
	return id
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
