package entities

// AppointmentRequest is constructed gateway-side and submitted to the clinic
// backend. Validation before submission belongs here; double-booking
// prevention belongs to the backend.
type AppointmentRequest struct {
	UserID         string `json:"user_id"`
	PetID          string `json:"pet_id"`
	VeterinarianID string `json:"veterinarian_id"`
	Date           string `json:"date"` // "2006-01-02"
	Time           string `json:"time"` // "HH:MM"
	Detail         string `json:"detail"`
	Status         string `json:"status"` // No se envia en el create
}

// BookingContact is who to notify once the backend accepts the booking.
type BookingContact struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Language string `json:"language"`
}
