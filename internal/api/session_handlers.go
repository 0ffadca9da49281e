package api

import (
	"encoding/json"
	"net/http"

	"vetclinic/internal/auth"
	"vetclinic/internal/entities"
	"vetclinic/internal/service"
)

type SessionHandler struct {
	Carts *service.CartService
}

func NewSessionHandler(carts *service.CartService) *SessionHandler {
	return &SessionHandler{Carts: carts}
}

// Login switches the visitor's cart to synced mode. The backend-owned cart
// replaces any lines collected while anonymous.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid request"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "user_id is required"})
		return
	}

	creds := auth.Credentials(r)
	if req.Token != "" {
		creds.Token = req.Token
	}

	lines := h.Carts.Login(r.Context(), auth.SessionID(r), req.UserID, creds)
	writeJSON(w, http.StatusOK, CartResponse{Mode: entities.CartModeSynced, Lines: lines})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Carts.Logout(r.Context(), auth.SessionID(r))
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out."})
}
