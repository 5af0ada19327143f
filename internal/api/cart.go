package api

import (
	"net/http"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	c, err := h.carts.Get(r.Context(), id.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var req addCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.carts.AddItem(r.Context(), id.UserID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var req updateCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.carts.UpdateItem(r.Context(), id.UserID, r.PathValue("productId"), req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	c, err := h.carts.RemoveItem(r.Context(), id.UserID, r.PathValue("productId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	if err := h.carts.Clear(r.Context(), id.UserID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
