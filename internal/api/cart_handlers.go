package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"vetclinic/internal/auth"
	"vetclinic/internal/backend"
	"vetclinic/internal/service"
)

type CartHandler struct {
	Service *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{Service: svc}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := auth.SessionID(r)
	lines := h.Service.Lines(r.Context(), sessionID)
	writeJSON(w, http.StatusOK, CartResponse{
		Mode:  h.Service.Mode(sessionID),
		Lines: lines,
	})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload backend.ProductPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid request"})
		return
	}
	line := payload.CartLine()
	if line.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Product id is required"})
		return
	}

	if err := h.Service.AddItem(r.Context(), auth.SessionID(r), line); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Product added to cart."})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["productId"]
	if err := h.Service.RemoveItem(r.Context(), auth.SessionID(r), productID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Product removed from cart."})
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Clear(r.Context(), auth.SessionID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Cart cleared."})
}

func (h *CartHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	lines := h.Service.Lines(r.Context(), auth.SessionID(r))
	writeJSON(w, http.StatusOK, h.Service.Summary(lines))
}
