package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/maryuh24/lashesstudio/internal/lifecycle"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("slot is already booked")
	ErrServiceInUse        = errors.New("service is referenced by bookings")
	ErrUserExists          = errors.New("username or email is already registered")
	ErrUserInUse           = errors.New("user is referenced by bookings")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListArtists(ctx context.Context) ([]User, error)
	ListUsers(ctx context.Context, q UserQuery) ([]User, error)
	// CreateUser and UpdateUser return ErrUserExists on a duplicate username or
	// email. UpdateUser keeps the stored hash when passwordHash is empty.
	CreateUser(ctx context.Context, u User, passwordHash string) (*User, error)
	UpdateUser(ctx context.Context, u User, passwordHash string) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	GetPasswordHash(ctx context.Context, id uuid.UUID) (string, error)
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error

	GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error)
	ListServices(ctx context.Context, search string) ([]Service, error)
	CreateService(ctx context.Context, svc Service) (*Service, error)
	UpdateService(ctx context.Context, svc Service) (*Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context, q ListQuery) ([]AppointmentDetail, error)

	// Starts held by pending or confirmed bookings for one artist on one day.
	ListTakenStarts(ctx context.Context, artistID uuid.UUID, date time.Time) ([]string, error)

	// Creation and updates
	CreatePendingAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	// UpdateAppointmentStatus only applies when the stored status still equals from;
	// otherwise it returns ErrAppointmentNotFound.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to lifecycle.Status, at time.Time) (*Appointment, error)

	// Lapse worker
	FindPendingOnOrBefore(ctx context.Context, date time.Time) ([]Appointment, error)

	CountStats(ctx context.Context) (*Stats, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
