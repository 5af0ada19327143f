// Package api exposes the HTTP surface: JSON handlers over the domain
// services, JWT authentication, and domain-error-to-status mapping.
package api

import (
	"net/http"

	"github.com/xenking/minishop/internal/auth"
	"github.com/xenking/minishop/internal/domain/cart"
	"github.com/xenking/minishop/internal/domain/order"
	"github.com/xenking/minishop/internal/domain/product"
)

// Handler holds the domain services behind the HTTP surface.
type Handler struct {
	auth     *auth.Service
	tokens   *auth.TokenProvider
	products *product.Service
	carts    *cart.Service
	orders   *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	authSvc *auth.Service,
	tokens *auth.TokenProvider,
	products *product.Service,
	carts *cart.Service,
	orders *order.Service,
) *Handler {
	return &Handler{
		auth:     authSvc,
		tokens:   tokens,
		products: products,
		carts:    carts,
		orders:   orders,
	}
}

// Register mounts all API routes on the mux. Customer routes require a valid
// token; admin routes additionally require the admin role.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)

	mux.Handle("POST /api/products", h.admin(h.createProduct))
	mux.Handle("PUT /api/products/{id}", h.admin(h.updateProduct))
	mux.Handle("DELETE /api/products/{id}", h.admin(h.deleteProduct))
	mux.Handle("POST /api/products/{id}/stock", h.admin(h.adjustStock))

	mux.Handle("GET /api/cart", h.authenticated(h.getCart))
	mux.Handle("POST /api/cart/items", h.authenticated(h.addCartItem))
	mux.Handle("PUT /api/cart/items/{productId}", h.authenticated(h.updateCartItem))
	mux.Handle("DELETE /api/cart/items/{productId}", h.authenticated(h.removeCartItem))
	mux.Handle("DELETE /api/cart", h.authenticated(h.clearCart))

	mux.Handle("POST /api/orders", h.authenticated(h.createOrder))
	mux.Handle("GET /api/orders", h.authenticated(h.listOrders))
	mux.Handle("GET /api/orders/{id}", h.authenticated(h.getOrder))
	mux.Handle("POST /api/orders/{id}/cancel", h.authenticated(h.cancelOrder))
	mux.Handle("POST /api/orders/{id}/payment", h.authenticated(h.processPayment))

	mux.Handle("GET /api/admin/orders", h.admin(h.listAllOrders))
	mux.Handle("GET /api/admin/orders/{id}", h.admin(h.getOrderAdmin))
	mux.Handle("PATCH /api/admin/orders/{id}/status", h.admin(h.updateOrderStatus))
	mux.Handle("POST /api/admin/orders/{id}/payment", h.admin(h.simulatePayment))
}
