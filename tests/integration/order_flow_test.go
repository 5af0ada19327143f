//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestCatalog_HidesInactiveProducts(t *testing.T) {
	resp := doGet(t, "/api/products", "")
	wantStatus(t, resp, http.StatusOK)

	for _, p := range decodeJSON[[]productResponse](t, resp) {
		if !p.IsActive {
			t.Errorf("inactive product %q exposed to customers", p.Name)
		}
		if p.Name == "Vintage Percolator" {
			t.Error("discontinued product should not be listed")
		}
	}
}

func TestCatalog_AdminSeesInactive(t *testing.T) {
	token := loginAdmin(t)

	resp := doGet(t, "/api/products?includeInactive=true", token)
	wantStatus(t, resp, http.StatusOK)

	found := false
	for _, p := range decodeJSON[[]productResponse](t, resp) {
		if p.Name == "Vintage Percolator" {
			found = true
		}
	}
	if !found {
		t.Error("admin listing should include the inactive product")
	}
}

func TestOrderFlow(t *testing.T) {
	_, token := registerUser(t, "flow-test@example.com")
	beans := findProduct(t, "Coffee Beans 1kg")
	filters := findProduct(t, "Filter Pack")

	// Fill the cart: 2x 10.50 + 1x 4.00 = 25.00.
	resp := doPost(t, "/api/cart/items", token, map[string]any{
		"productId": beans.ID, "quantity": 2,
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doPost(t, "/api/cart/items", token, map[string]any{
		"productId": filters.ID, "quantity": 1,
	})
	wantStatus(t, resp, http.StatusOK)
	c := decodeJSON[cartResponse](t, resp)
	if len(c.Items) != 2 {
		t.Fatalf("cart items: got %d, want 2", len(c.Items))
	}

	resp = doPost(t, "/api/orders", token, map[string]string{
		"shippingAddress": "1 Integration Way",
	})
	wantStatus(t, resp, http.StatusCreated)
	o := decodeJSON[orderResponse](t, resp)

	if o.TotalAmount != 25.0 {
		t.Errorf("total: got %v, want 25.00", o.TotalAmount)
	}
	if o.Status != "pending" || o.PaymentStatus != "pending" {
		t.Errorf("fresh order state: %s/%s", o.Status, o.PaymentStatus)
	}
	if !strings.HasPrefix(o.OrderNumber, "ORD-") {
		t.Errorf("order number: got %q", o.OrderNumber)
	}
	if len(o.Items) != 2 {
		t.Fatalf("order items: got %d, want 2", len(o.Items))
	}
	for _, item := range o.Items {
		if item.ProductName == "" {
			t.Error("order line is missing the product name snapshot")
		}
	}

	// Order placement emptied the cart.
	resp = doGet(t, "/api/cart", token)
	wantStatus(t, resp, http.StatusOK)
	if c := decodeJSON[cartResponse](t, resp); len(c.Items) != 0 {
		t.Errorf("cart should be empty after ordering, has %d items", len(c.Items))
	}

	// Stock was reserved.
	if after := findProduct(t, "Coffee Beans 1kg"); after.Stock != beans.Stock-2 {
		t.Errorf("stock after order: got %d, want %d", after.Stock, beans.Stock-2)
	}

	// Deterministic payment via the admin simulation endpoint.
	admin := loginAdmin(t)
	resp = doPost(t, "/api/admin/orders/"+o.ID+"/payment", admin, map[string]bool{"success": true})
	wantStatus(t, resp, http.StatusOK)
	paid := decodeJSON[orderResponse](t, resp)
	if paid.Status != "paid" || paid.PaymentStatus != "completed" {
		t.Errorf("after payment: %s/%s", paid.Status, paid.PaymentStatus)
	}
}

func TestOrder_EmptyCart(t *testing.T) {
	_, token := registerUser(t, "empty-cart@example.com")

	resp := doPost(t, "/api/orders", token, map[string]string{
		"shippingAddress": "1 Integration Way",
	})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestOrder_InsufficientStock(t *testing.T) {
	_, token := registerUser(t, "greedy@example.com")
	grinder := findProduct(t, "Burr Grinder")

	resp := doPost(t, "/api/cart/items", token, map[string]any{
		"productId": grinder.ID, "quantity": grinder.Stock + 1,
	})
	wantStatus(t, resp, http.StatusBadRequest)

	body := decodeJSON[errorResponse](t, resp)
	if !strings.Contains(body.Message, "insufficient stock") {
		t.Errorf("message: got %q", body.Message)
	}
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	_, token := registerUser(t, "cancel-test@example.com")
	kettle := findProduct(t, "Gooseneck Kettle")

	resp := doPost(t, "/api/cart/items", token, map[string]any{
		"productId": kettle.ID, "quantity": 3,
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doPost(t, "/api/orders", token, map[string]string{
		"shippingAddress": "1 Integration Way",
	})
	wantStatus(t, resp, http.StatusCreated)
	o := decodeJSON[orderResponse](t, resp)

	resp = doPost(t, "/api/orders/"+o.ID+"/cancel", token, nil)
	wantStatus(t, resp, http.StatusOK)
	cancelled := decodeJSON[orderResponse](t, resp)
	if cancelled.Status != "cancelled" {
		t.Errorf("status: got %q", cancelled.Status)
	}

	if after := findProduct(t, "Gooseneck Kettle"); after.Stock != kettle.Stock {
		t.Errorf("stock after cancel: got %d, want %d", after.Stock, kettle.Stock)
	}

	// Cancelling twice fails, as does paying for a cancelled order.
	resp = doPost(t, "/api/orders/"+o.ID+"/cancel", token, nil)
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = doPost(t, "/api/orders/"+o.ID+"/payment", token, nil)
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestOrder_ForeignOrderHidden(t *testing.T) {
	_, alice := registerUser(t, "owner@example.com")
	_, mallory := registerUser(t, "snoop@example.com")
	mug := findProduct(t, "Ceramic Mug")

	resp := doPost(t, "/api/cart/items", alice, map[string]any{
		"productId": mug.ID, "quantity": 1,
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doPost(t, "/api/orders", alice, map[string]string{
		"shippingAddress": "1 Integration Way",
	})
	wantStatus(t, resp, http.StatusCreated)
	o := decodeJSON[orderResponse](t, resp)

	resp = doGet(t, "/api/orders/"+o.ID, mallory)
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = doPost(t, "/api/orders/"+o.ID+"/cancel", mallory, nil)
	wantStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()
}

func TestPaymentFailure_Recorded(t *testing.T) {
	_, token := registerUser(t, "failed-payment@example.com")
	scale := findProduct(t, "Digital Scale")

	resp := doPost(t, "/api/cart/items", token, map[string]any{
		"productId": scale.ID, "quantity": 1,
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doPost(t, "/api/orders", token, map[string]string{
		"shippingAddress": "1 Integration Way",
	})
	wantStatus(t, resp, http.StatusCreated)
	o := decodeJSON[orderResponse](t, resp)

	// Force a failed payment; the attempt is persisted and a retry stays open.
	admin := loginAdmin(t)
	resp = doPost(t, "/api/admin/orders/"+o.ID+"/payment", admin, map[string]bool{"success": false})
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = doGet(t, "/api/orders/"+o.ID, token)
	wantStatus(t, resp, http.StatusOK)
	after := decodeJSON[orderResponse](t, resp)
	if after.PaymentStatus != "failed" {
		t.Errorf("payment status: got %q, want failed", after.PaymentStatus)
	}
	if after.Status != "pending" {
		t.Errorf("order status: got %q, want pending", after.Status)
	}

	resp = doPost(t, "/api/admin/orders/"+o.ID+"/payment", admin, map[string]bool{"success": true})
	wantStatus(t, resp, http.StatusOK)
	retried := decodeJSON[orderResponse](t, resp)
	if retried.PaymentStatus != "completed" {
		t.Errorf("retried payment: got %q", retried.PaymentStatus)
	}
}
