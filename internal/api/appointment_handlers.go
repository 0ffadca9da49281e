package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"vetclinic/internal/auth"
	"vetclinic/internal/entities"
	"vetclinic/internal/service"
)

type AppointmentHandler struct {
	Service *service.ScheduleService
}

func NewAppointmentHandler(svc *service.ScheduleService) *AppointmentHandler {
	return &AppointmentHandler{Service: svc}
}

func (h *AppointmentHandler) ListVeterinarians(w http.ResponseWriter, r *http.Request) {
	vets, err := h.Service.Veterinarians(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vets)
}

func (h *AppointmentHandler) GetSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	veterinarianID := r.URL.Query().Get("veterinarian_id")
	if date == "" || veterinarianID == "" {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "date and veterinarian_id are required"})
		return
	}

	slots, err := h.Service.Availability(r.Context(), auth.SessionID(r), date, veterinarianID)
	if err != nil {
		if errors.Is(err, service.ErrStaleSelection) {
			writeJSON(w, http.StatusConflict, MessageResponse{Message: "Selection changed, please retry"})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entities.AvailabilityResponse{
		Date:           date,
		VeterinarianID: veterinarianID,
		Slots:          slots,
	})
}

func (h *AppointmentHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	var req SelectSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid request"})
		return
	}
	h.Service.SelectSlot(auth.SessionID(r), req.Date, req.VeterinarianID, req.Time)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Slot selected."})
}

func (h *AppointmentHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid request"})
		return
	}

	appointment := entities.AppointmentRequest{
		UserID:         req.UserID,
		PetID:          req.PetID,
		VeterinarianID: req.VeterinarianID,
		Date:           req.Date,
		Time:           req.Time,
		Detail:         req.Detail,
	}
	err := h.Service.ValidateAndSubmit(r.Context(), auth.Credentials(r), appointment, req.Contact)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Appointment booked."})
}
