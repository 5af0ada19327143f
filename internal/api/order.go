package api

import (
	"net/http"

	"github.com/xenking/minishop/internal/domain/order"
)

type createOrderRequest struct {
	ShippingAddress string `json:"shippingAddress"`
	Notes           string `json:"notes,omitempty"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ShippingAddress == "" {
		writeError(w, http.StatusBadRequest, "shipping address is required")
		return
	}

	o, err := h.orders.CreateOrder(r.Context(), order.CreateRequest{
		UserID:          id.UserID,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	orders, err := h.orders.ListOrders(r.Context(), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	o, err := h.orders.GetOrder(r.Context(), r.PathValue("id"), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	o, err := h.orders.CancelOrder(r.Context(), r.PathValue("id"), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) processPayment(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	o, err := h.orders.ProcessPayment(r.Context(), r.PathValue("id"), id.UserID, order.PaymentOptions{})
	if err != nil {
		// On a failed draw the order keeps its failed payment status; the
		// error maps to 400 and the caller may retry.
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAllOrders(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *Handler) getOrderAdmin(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetOrderAdmin(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.UpdateOrderStatus(r.Context(), r.PathValue("id"), order.Status(req.Status))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type simulatePaymentRequest struct {
	Success bool `json:"success"`
}

// simulatePayment is the admin variant of processPayment: the outcome is
// forced by the request instead of drawn from the random source.
func (h *Handler) simulatePayment(w http.ResponseWriter, r *http.Request) {
	var req simulatePaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orders.ProcessPayment(r.Context(), r.PathValue("id"), "", order.PaymentOptions{
		Outcome:        &req.Success,
		SkipOwnerCheck: true,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}
