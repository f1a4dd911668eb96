package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/maryuh24/lashesstudio/internal/lifecycle"
)

// User is an account. The password hash never leaves the repository.
type User struct {
	ID        uuid.UUID
	Name      string
	Username  string
	Email     string
	Role      lifecycle.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Service is a treatment offered by the studio. Prices are stored in cents.
type Service struct {
	ID          uuid.UUID
	Name        string
	Description string
	PriceCents  int
	DurationMin int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Appointment struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	ArtistID    uuid.UUID
	ServiceID   uuid.UUID
	BookingDate time.Time // calendar date; the time component is ignored
	BookingTime string    // HH:MM, always a catalog start
	Status      lifecycle.Status
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ApprovedAt  *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// Snapshot is the view of an appointment the lifecycle classification needs.
func (a Appointment) Snapshot() lifecycle.Snapshot {
	return lifecycle.Snapshot{
		Status:      a.Status,
		BookingDate: a.BookingDate,
		BookingTime: a.BookingTime,
	}
}

type AppointmentDetail struct {
	Appointment
	CustomerName string
	ArtistName   string
	ServiceName  string
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// Actor is the authenticated caller a service operation runs on behalf of.
type Actor struct {
	UserID uuid.UUID
	Role   lifecycle.Role
}

// ListFilter narrows appointment listings. Empty fields match everything.
type ListFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// ListQuery is a ListFilter resolved against the caller's scope.
type ListQuery struct {
	CustomerID *uuid.UUID
	ArtistID   *uuid.UUID
	Status     lifecycle.Status
	Search     string
	Limit      int
	Offset     int
}

type CreateBookingInput struct {
	ServiceID uuid.UUID
	ArtistID  uuid.UUID
	Date      string // YYYY-MM-DD
	Time      string // catalog start
	Notes     string
}

type ServiceInput struct {
	Name        string
	Description string
	PriceCents  int
	DurationMin int
}

// UserInput is an admin's create or update request. An empty Password on
// update keeps the current one.
type UserInput struct {
	Name     string
	Username string
	Email    string
	Role     string
	Password string
}

// UserFilter narrows the admin user listing. Role is a raw user_type value.
type UserFilter struct {
	Role   string
	Search string
}

type UserQuery struct {
	Role   lifecycle.Role
	Search string
}

// Stats are the counters shown on the admin dashboard.
type Stats struct {
	TotalAppointments   int
	PendingAppointments int
	TotalServices       int
	TotalUsers          int
}
