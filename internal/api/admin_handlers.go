package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"vetclinic/internal/service"
)

type AdminHandler struct {
	Service *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{Service: svc}
}

type MirrorResponse struct {
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id,omitempty"`
	Lines     json.RawMessage `json:"lines"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (h *AdminHandler) ListMirrors(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	updatedSince := r.URL.Query().Get("updated_since")
	guestsOnly := r.URL.Query().Get("guests_only") == "true"

	mirrors, err := h.Service.ListMirrors(userID, updatedSince, guestsOnly)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	resp := make([]MirrorResponse, 0, len(mirrors))
	for _, m := range mirrors {
		resp = append(resp, MirrorResponse{
			SessionID: m.SessionID,
			UserID:    m.UserID.String,
			Lines:     json.RawMessage(m.Lines),
			UpdatedAt: m.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) PurgeStaleMirrors(w http.ResponseWriter, r *http.Request) {
	maxAgeHours := 72
	if raw := r.URL.Query().Get("max_age_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid max_age_hours", http.StatusBadRequest)
			return
		}
		maxAgeHours = parsed
	}

	deleted, err := h.Service.PurgeStaleGuestMirrors(time.Duration(maxAgeHours) * time.Hour)
	if err != nil {
		http.Error(w, "Could not purge stale mirrors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": deleted,
		"message": "Stale guest carts purged",
	})
}
