package api

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/maryuh24/lashesstudio/internal/appointment"
	"github.com/maryuh24/lashesstudio/internal/lifecycle"
	"github.com/maryuh24/lashesstudio/internal/slot"
)

var errStub = errors.New("stub: not configured")

// stubService returns canned results and records the last call's arguments.
type stubService struct {
	now  time.Time
	appt *appointment.Appointment
	list []appointment.AppointmentDetail
	err  error

	lastActor  appointment.Actor
	lastFilter appointment.ListFilter
	lastInput  appointment.CreateBookingInput
	lastCaller uuid.UUID

	user          *appointment.User
	stats         *appointment.Stats
	lastUserInput appointment.UserInput
	lastUsers     appointment.UserFilter
	lastPasswords [2]string
}

func (s *stubService) Now() time.Time           { return s.now }
func (s *stubService) Location() *time.Location { return time.UTC }

func (s *stubService) AvailableSlots(_ context.Context, _ uuid.UUID, _ string) ([]slot.Slot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return slot.Available(slot.All(), []string{"08:00", "17:00"}), nil
}

func (s *stubService) CreateBooking(_ context.Context, customerID uuid.UUID, in appointment.CreateBookingInput) (*appointment.Appointment, error) {
	s.lastCaller, s.lastInput = customerID, in
	return s.result()
}

func (s *stubService) ListForCustomer(_ context.Context, id uuid.UUID, f appointment.ListFilter) ([]appointment.AppointmentDetail, error) {
	s.lastCaller, s.lastFilter = id, f
	return s.list, s.err
}

func (s *stubService) ListForArtist(_ context.Context, id uuid.UUID, f appointment.ListFilter) ([]appointment.AppointmentDetail, error) {
	s.lastCaller, s.lastFilter = id, f
	return s.list, s.err
}

func (s *stubService) ListAll(_ context.Context, f appointment.ListFilter) ([]appointment.AppointmentDetail, error) {
	s.lastFilter = f
	return s.list, s.err
}

func (s *stubService) Approve(context.Context, uuid.UUID) (*appointment.Appointment, error) {
	return s.result()
}

func (s *stubService) Decline(context.Context, uuid.UUID) (*appointment.Appointment, error) {
	return s.result()
}

func (s *stubService) Complete(_ context.Context, artistID, _ uuid.UUID) (*appointment.Appointment, error) {
	s.lastCaller = artistID
	return s.result()
}

func (s *stubService) Cancel(_ context.Context, actor appointment.Actor, _ uuid.UUID) (*appointment.Appointment, error) {
	s.lastActor = actor
	return s.result()
}

func (s *stubService) ListServices(context.Context, string) ([]appointment.Service, error) {
	return []appointment.Service{{ID: uuid.New(), Name: "Classic Set", PriceCents: 8000, DurationMin: 120}}, s.err
}

func (s *stubService) ListArtists(context.Context) ([]appointment.User, error) {
	return []appointment.User{{ID: uuid.New(), Name: "Lina", Role: lifecycle.RoleArtist}}, s.err
}

func (s *stubService) CreateService(_ context.Context, in appointment.ServiceInput) (*appointment.Service, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &appointment.Service{ID: uuid.New(), Name: in.Name, PriceCents: in.PriceCents, DurationMin: in.DurationMin}, nil
}

func (s *stubService) UpdateService(_ context.Context, id uuid.UUID, in appointment.ServiceInput) (*appointment.Service, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &appointment.Service{ID: id, Name: in.Name, PriceCents: in.PriceCents, DurationMin: in.DurationMin}, nil
}

func (s *stubService) DeleteService(context.Context, uuid.UUID) error { return s.err }

func (s *stubService) Me(_ context.Context, userID uuid.UUID) (*appointment.User, error) {
	s.lastCaller = userID
	return s.userResult()
}

func (s *stubService) ChangePassword(_ context.Context, userID uuid.UUID, current, next string) error {
	s.lastCaller, s.lastPasswords = userID, [2]string{current, next}
	return s.err
}

func (s *stubService) ListUsers(_ context.Context, f appointment.UserFilter) ([]appointment.User, error) {
	s.lastUsers = f
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil {
		return nil, nil
	}
	return []appointment.User{*s.user}, nil
}

func (s *stubService) CreateUser(_ context.Context, in appointment.UserInput) (*appointment.User, error) {
	s.lastUserInput = in
	return s.userResult()
}

func (s *stubService) UpdateUser(_ context.Context, actor appointment.Actor, _ uuid.UUID, in appointment.UserInput) (*appointment.User, error) {
	s.lastActor, s.lastUserInput = actor, in
	return s.userResult()
}

func (s *stubService) DeleteUser(_ context.Context, actor appointment.Actor, _ uuid.UUID) error {
	s.lastActor = actor
	return s.err
}

func (s *stubService) Stats(context.Context) (*appointment.Stats, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.stats == nil {
		return nil, errStub
	}
	return s.stats, nil
}

func (s *stubService) userResult() (*appointment.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil {
		return nil, errStub
	}
	return s.user, nil
}

func (s *stubService) result() (*appointment.Appointment, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.appt == nil {
		return nil, errStub
	}
	return s.appt, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
