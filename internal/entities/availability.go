package entities

// Clinic-wide booking window, enforced at submission regardless of the
// veterinarian's own configured hours.
const (
	DefaultStartHour = 8
	DefaultEndHour   = 20
)

// SlotCandidate is one half-hour slot within a veterinarian's working window.
// Derived on every (date, veterinarian) selection change, never persisted.
type SlotCandidate struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type AvailabilityResponse struct {
	Date           string          `json:"date"`
	VeterinarianID string          `json:"veterinarian_id"`
	Slots          []SlotCandidate `json:"slots"`
}

// Veterinarian working window as exposed to slot generation. StartHour and
// EndHour default to the clinic-wide window when the backend omits them.
type Veterinarian struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	StartHour   int    `json:"start_hour"`
	EndHour     int    `json:"end_hour"`
	Description string `json:"description,omitempty"`
}
