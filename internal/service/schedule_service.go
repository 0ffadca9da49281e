package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"sync"
	"time"

	"vetclinic/internal/backend"
	"vetclinic/internal/entities"
	apperrors "vetclinic/internal/errors"
	"vetclinic/internal/utils"
)

const statusPending = "pending"

// ErrStaleSelection means an availability fetch finished after the session
// had already moved to a different (date, veterinarian) pair; its result must
// not overwrite the newer view.
var ErrStaleSelection = errors.New("selection changed while fetching availability")

// ScheduleBackend is the slice of the clinic backend the calendar uses.
type ScheduleBackend interface {
	ListVeterinarians(ctx context.Context) ([]entities.Veterinarian, error)
	BookedTimes(ctx context.Context, date, veterinarianID string) ([]string, error)
	CreateAppointment(ctx context.Context, creds backend.Credentials, req entities.AppointmentRequest) error
}

// ScheduleService computes which half-hour slots are bookable for a
// veterinarian on a date and validates booking attempts before they reach the
// backend. It reserves nothing itself; the backend is the only point of
// conflict resolution.
type ScheduleService struct {
	Backend  ScheduleBackend
	Sender   *SenderService
	Now      func() time.Time
	Location *time.Location

	mu         sync.Mutex
	selections map[string]slotSelection
}

// slotSelection is a session's current calendar focus plus the tentatively
// chosen time.
type slotSelection struct {
	Date           string
	VeterinarianID string
	Time           string
}

func NewScheduleService(backendClient ScheduleBackend, sender *SenderService) *ScheduleService {
	return &ScheduleService{
		Backend:    backendClient,
		Sender:     sender,
		Now:        time.Now,
		Location:   time.Local,
		selections: make(map[string]slotSelection),
	}
}

// GenerateSlots yields "HH:MM" strings at 30-minute steps from startHour:00
// up to but excluding endHour:00. The sequence is pure and can be ranged over
// any number of times.
func GenerateSlots(startHour, endHour int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for h := startHour; h < endHour; h++ {
			if !yield(fmt.Sprintf("%02d:00", h)) {
				return
			}
			if !yield(fmt.Sprintf("%02d:30", h)) {
				return
			}
		}
	}
}

// MarkAvailability marks a slot unavailable iff its time string exactly
// matches a booked time. Bookings are fixed at 30 minutes, so exact matching
// is enough; no range overlap is considered.
func MarkAvailability(slots iter.Seq[string], bookedTimes []string) []entities.SlotCandidate {
	booked := make(map[string]struct{}, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = struct{}{}
	}

	var candidates []entities.SlotCandidate
	for slot := range slots {
		_, taken := booked[slot]
		candidates = append(candidates, entities.SlotCandidate{Time: slot, Available: !taken})
	}
	return candidates
}

// Availability computes the bookable slots for a (date, veterinarian) pair.
// The fetch is tagged with the session's selection at the time it started; a
// result arriving after the session moved on is discarded.
func (s *ScheduleService) Availability(ctx context.Context, sessionID, date, veterinarianID string) ([]entities.SlotCandidate, error) {
	s.mu.Lock()
	s.selections[sessionID] = slotSelection{Date: date, VeterinarianID: veterinarianID}
	s.mu.Unlock()

	startHour, endHour := entities.DefaultStartHour, entities.DefaultEndHour
	vet, err := s.veterinarian(ctx, veterinarianID)
	if err != nil {
		utils.Sugar().Warnf("Could not resolve veterinarian %s, using default hours: %v", veterinarianID, err)
	} else {
		startHour, endHour = vet.StartHour, vet.EndHour
	}

	booked, err := s.Backend.BookedTimes(ctx, date, veterinarianID)
	if err != nil {
		// Optimistic fallback: show every slot as free and let the backend
		// reject a real conflict at submission time.
		utils.Sugar().Warnf("Booked-times fetch failed for %s/%s, showing all slots available: %v", date, veterinarianID, err)
		booked = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.selections[sessionID]
	if current.Date != date || current.VeterinarianID != veterinarianID {
		return nil, ErrStaleSelection
	}
	return MarkAvailability(GenerateSlots(startHour, endHour), booked), nil
}

// SelectSlot records the tentative choice for the session. Nothing is
// reserved; the slot stays visible to other viewers until a booking actually
// succeeds on the backend.
func (s *ScheduleService) SelectSlot(sessionID, date, veterinarianID, slotTime string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[sessionID] = slotSelection{Date: date, VeterinarianID: veterinarianID, Time: slotTime}
}

func (s *ScheduleService) Veterinarians(ctx context.Context) ([]entities.Veterinarian, error) {
	return s.Backend.ListVeterinarians(ctx)
}

// ValidateAndSubmit enforces the booking rules and only then hands the
// request to the backend. The clinic-wide [8,20] bound applies on top of the
// veterinarian's own window used for slot generation. A backend rejection
// surfaces its message verbatim and leaves the calendar untouched.
func (s *ScheduleService) ValidateAndSubmit(ctx context.Context, creds backend.Credentials, req entities.AppointmentRequest, contact entities.BookingContact) error {
	when, err := time.ParseInLocation("2006-01-02 15:04", req.Date+" "+req.Time, s.Location)
	if err != nil {
		return apperrors.NewValidationError("Invalid appointment date or time")
	}
	if when.Before(s.Now()) {
		return apperrors.NewValidationError("Cannot schedule an appointment in the past")
	}
	hourOfDay := float64(when.Hour()) + float64(when.Minute())/60
	if hourOfDay < float64(entities.DefaultStartHour) || hourOfDay > float64(entities.DefaultEndHour) {
		return apperrors.NewValidationError("Appointments must be between 08:00 and 20:00")
	}

	if req.Status == "" {
		req.Status = statusPending
	}
	if err := s.Backend.CreateAppointment(ctx, creds, req); err != nil {
		var backendErr *apperrors.BackendError
		if errors.As(err, &backendErr) && backendErr.StatusCode == http.StatusConflict {
			return &apperrors.ConflictError{Message: backendErr.Error()}
		}
		return err
	}

	if s.Sender != nil && (contact.Email != "" || contact.Phone != "") {
		vetName := req.VeterinarianID
		if vet, err := s.veterinarian(ctx, req.VeterinarianID); err == nil {
			vetName = vet.Name
		}
		s.Sender.SendAppointmentSMS(contact, req, vetName, "confirmed")
		s.Sender.SendAppointmentEmail(contact, req, vetName, "confirmed")
	}
	return nil
}

func (s *ScheduleService) veterinarian(ctx context.Context, id string) (*entities.Veterinarian, error) {
	vets, err := s.Backend.ListVeterinarians(ctx)
	if err != nil {
		return nil, err
	}
	for i := range vets {
		if utils.SameID(vets[i].ID, id) {
			return &vets[i], nil
		}
	}
	return nil, fmt.Errorf("veterinarian %s not found", id)
}
