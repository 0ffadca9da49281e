package service

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetclinic/internal/backend"
	"vetclinic/internal/entities"
	apperrors "vetclinic/internal/errors"
)

type fakeScheduleBackend struct {
	vets       []entities.Veterinarian
	vetsErr    error
	booked     []string
	bookedErr  error
	bookedHook func()
	createErr  error

	created     []entities.AppointmentRequest
	createCalls int
}

func (f *fakeScheduleBackend) ListVeterinarians(ctx context.Context) ([]entities.Veterinarian, error) {
	if f.vetsErr != nil {
		return nil, f.vetsErr
	}
	return f.vets, nil
}

func (f *fakeScheduleBackend) BookedTimes(ctx context.Context, date, veterinarianID string) ([]string, error) {
	if f.bookedHook != nil {
		f.bookedHook()
	}
	if f.bookedErr != nil {
		return nil, f.bookedErr
	}
	return f.booked, nil
}

func (f *fakeScheduleBackend) CreateAppointment(ctx context.Context, creds backend.Credentials, req entities.AppointmentRequest) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, req)
	return nil
}

func newTestSchedule(backendFake *fakeScheduleBackend) *ScheduleService {
	svc := NewScheduleService(backendFake, nil)
	svc.Location = time.UTC
	svc.Now = func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestGenerateSlotsDefaultWindow(t *testing.T) {
	slots := slices.Collect(GenerateSlots(entities.DefaultStartHour, entities.DefaultEndHour))

	require.Len(t, slots, 24)
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "08:30", slots[1])
	assert.Equal(t, "19:30", slots[len(slots)-1])
	assert.True(t, slices.IsSorted(slots), "slots come out in increasing order")
	assert.NotContains(t, slots, "20:00", "the closing hour itself is not a slot")
}

func TestGenerateSlotsIsRestartable(t *testing.T) {
	seq := GenerateSlots(9, 11)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
}

func TestGenerateSlotsEmptyWindow(t *testing.T) {
	assert.Empty(t, slices.Collect(GenerateSlots(10, 10)))
}

func TestMarkAvailabilityExactMatch(t *testing.T) {
	candidates := MarkAvailability(GenerateSlots(8, 20), []string{"10:00", "14:30"})

	byTime := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		byTime[c.Time] = c.Available
	}
	assert.False(t, byTime["10:00"])
	assert.False(t, byTime["14:30"])
	assert.True(t, byTime["10:30"])
	assert.True(t, byTime["14:00"])
}

func TestAvailabilityUsesVeterinarianHours(t *testing.T) {
	backendFake := &fakeScheduleBackend{
		vets: []entities.Veterinarian{{ID: "v1", Name: "Dra. Ríos", StartHour: 9, EndHour: 13}},
	}
	svc := newTestSchedule(backendFake)

	candidates, err := svc.Availability(context.Background(), "s1", "2026-03-12", "v1")
	require.NoError(t, err)
	require.Len(t, candidates, 8)
	assert.Equal(t, "09:00", candidates[0].Time)
	assert.Equal(t, "12:30", candidates[len(candidates)-1].Time)
}

func TestAvailabilityFallsBackToDefaultHours(t *testing.T) {
	backendFake := &fakeScheduleBackend{vetsErr: errors.New("vets down")}
	svc := newTestSchedule(backendFake)

	candidates, err := svc.Availability(context.Background(), "s1", "2026-03-12", "v1")
	require.NoError(t, err)
	assert.Len(t, candidates, 24)
}

func TestAvailabilityOptimisticOnFetchFailure(t *testing.T) {
	backendFake := &fakeScheduleBackend{
		vets:      []entities.Veterinarian{{ID: "v1", StartHour: 8, EndHour: 20}},
		bookedErr: errors.New("backend down"),
	}
	svc := newTestSchedule(backendFake)

	candidates, err := svc.Availability(context.Background(), "s1", "2026-03-12", "v1")
	require.NoError(t, err)
	for _, c := range candidates {
		assert.True(t, c.Available, "slot %s should be optimistic when booked times are unknown", c.Time)
	}
}

func TestAvailabilityDiscardsStaleResponse(t *testing.T) {
	backendFake := &fakeScheduleBackend{
		vets: []entities.Veterinarian{{ID: "v1", StartHour: 8, EndHour: 20}},
	}
	svc := newTestSchedule(backendFake)

	// The session switches to another day while the fetch is in flight.
	backendFake.bookedHook = func() {
		svc.SelectSlot("s1", "2026-03-13", "v1", "")
	}

	_, err := svc.Availability(context.Background(), "s1", "2026-03-12", "v1")
	assert.ErrorIs(t, err, ErrStaleSelection)
}

func TestValidateAndSubmitRejectsPast(t *testing.T) {
	backendFake := &fakeScheduleBackend{}
	svc := newTestSchedule(backendFake)

	req := entities.AppointmentRequest{Date: "2026-03-10", Time: "09:00", VeterinarianID: "v1"}
	err := svc.ValidateAndSubmit(context.Background(), backend.Credentials{}, req, entities.BookingContact{})

	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, backendFake.createCalls, "a rejected request never reaches the backend")
}

func TestValidateAndSubmitRejectsInvalidFormat(t *testing.T) {
	svc := newTestSchedule(&fakeScheduleBackend{})

	req := entities.AppointmentRequest{Date: "12/03/2026", Time: "9am", VeterinarianID: "v1"}
	err := svc.ValidateAndSubmit(context.Background(), backend.Credentials{}, req, entities.BookingContact{})

	var vErr *apperrors.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestValidateAndSubmitClinicHours(t *testing.T) {
	cases := []struct {
		name    string
		slot    string
		allowed bool
	}{
		{"before opening", "07:30", false},
		{"opening slot", "08:00", true},
		{"last half-hour", "19:30", true},
		{"closing hour on the dot", "20:00", true},
		{"past closing", "20:30", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backendFake := &fakeScheduleBackend{}
			svc := newTestSchedule(backendFake)

			req := entities.AppointmentRequest{Date: "2026-03-12", Time: tc.slot, VeterinarianID: "v1"}
			err := svc.ValidateAndSubmit(context.Background(), backend.Credentials{}, req, entities.BookingContact{})

			if tc.allowed {
				assert.NoError(t, err)
			} else {
				var vErr *apperrors.ValidationError
				assert.ErrorAs(t, err, &vErr)
				assert.Zero(t, backendFake.createCalls)
			}
		})
	}
}

func TestValidateAndSubmitDefaultsStatusPending(t *testing.T) {
	backendFake := &fakeScheduleBackend{}
	svc := newTestSchedule(backendFake)

	req := entities.AppointmentRequest{Date: "2026-03-12", Time: "10:00", VeterinarianID: "v1"}
	require.NoError(t, svc.ValidateAndSubmit(context.Background(), backend.Credentials{}, req, entities.BookingContact{}))

	require.Len(t, backendFake.created, 1)
	assert.Equal(t, "pending", backendFake.created[0].Status)
}

func TestValidateAndSubmitSurfacesBackendConflict(t *testing.T) {
	backendFake := &fakeScheduleBackend{
		createErr: &apperrors.BackendError{StatusCode: http.StatusConflict, Message: "Slot already taken"},
	}
	svc := newTestSchedule(backendFake)

	req := entities.AppointmentRequest{Date: "2026-03-12", Time: "10:00", VeterinarianID: "v1"}
	err := svc.ValidateAndSubmit(context.Background(), backend.Credentials{}, req, entities.BookingContact{})

	var cErr *apperrors.ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Contains(t, cErr.Message, "Slot already taken")
}

func TestValidateAndSubmitPassesOtherBackendErrorsThrough(t *testing.T) {
	backendFake := &fakeScheduleBackend{
		createErr: &apperrors.BackendError{StatusCode: http.StatusBadGateway},
	}
	svc := newTestSchedule(backendFake)

	req := entities.AppointmentRequest{Date: "2026-03-12", Time: "10:00", VeterinarianID: "v1"}
	err := svc.ValidateAndSubmit(context.Background(), backend.Credentials{}, req, entities.BookingContact{})

	var bErr *apperrors.BackendError
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, http.StatusBadGateway, bErr.StatusCode)
}
