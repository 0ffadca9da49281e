package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"vetclinic/internal/entities"
	apperrors "vetclinic/internal/errors"
)

// Session
type LoginRequest struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// Cart
type CartResponse struct {
	Mode  entities.CartMode   `json:"mode"`
	Lines []entities.CartLine `json:"lines"`
}

// Appointments
type SelectSlotRequest struct {
	Date           string `json:"date"`
	VeterinarianID string `json:"veterinarian_id"`
	Time           string `json:"time"`
}

type CreateAppointmentRequest struct {
	UserID         string                  `json:"user_id"`
	PetID          string                  `json:"pet_id"`
	VeterinarianID string                  `json:"veterinarian_id"`
	Date           string                  `json:"date"`
	Time           string                  `json:"time"`
	Detail         string                  `json:"detail"`
	Contact        entities.BookingContact `json:"contact"`
}

// Checkout
type CheckoutRequest struct {
	Email string `json:"email"`
}
type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps the error taxonomy onto status codes. Backend messages pass
// through verbatim so the user sees what the clinic backend said.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *apperrors.ValidationError
	var conflictErr *apperrors.ConflictError
	var backendErr *apperrors.BackendError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: validationErr.Message})
	case errors.As(err, &conflictErr):
		writeJSON(w, http.StatusConflict, MessageResponse{Message: conflictErr.Message})
	case errors.As(err, &backendErr):
		status := http.StatusBadGateway
		if backendErr.StatusCode >= 400 && backendErr.StatusCode < 500 {
			status = backendErr.StatusCode
		}
		writeJSON(w, status, MessageResponse{Message: backendErr.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, MessageResponse{Message: "Internal error"})
	}
}
