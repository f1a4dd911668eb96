package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/maryuh24/lashesstudio/internal/appointment"
	"github.com/maryuh24/lashesstudio/internal/lifecycle"
	"github.com/maryuh24/lashesstudio/internal/slot"
)

type CreateBookingRequest struct {
	ServiceID    string `json:"service_id"`
	LashArtistID string `json:"lash_artist_id"`
	BookingDate  string `json:"booking_date"`
	BookingTime  string `json:"booking_time"`
	Notes        string `json:"notes"`
}

type ServiceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int    `json:"price_cents"`
	DurationMin int    `json:"duration_min"`
}

// AppointmentResponse is one booking plus its classification for the caller.
type AppointmentResponse struct {
	ID           uuid.UUID  `json:"id"`
	CustomerID   uuid.UUID  `json:"customer_id"`
	LashArtistID uuid.UUID  `json:"lash_artist_id"`
	ServiceID    uuid.UUID  `json:"service_id"`
	BookingDate  string     `json:"booking_date"`
	BookingTime  string     `json:"booking_time"`
	Notes        string     `json:"notes,omitempty"`
	CustomerName string     `json:"customer_name,omitempty"`
	ArtistName   string     `json:"lash_artist_name,omitempty"`
	ServiceName  string     `json:"service_name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	lifecycle.View
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

type AvailableSlotsResponse struct {
	AvailableSlots []slot.Slot `json:"available_slots"`
}

type SlotsResponse struct {
	Slots []slot.Slot `json:"slots"`
}

type ServiceResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int       `json:"price_cents"`
	DurationMin int       `json:"duration_min"`
}

type ArtistResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// UserRequest is field-for-field convertible to appointment.UserInput.
type UserRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"user_type"`
	Password string `json:"password,omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	UserType  string    `json:"user_type"`
	CreatedAt time.Time `json:"created_at"`
}

type MeResponse struct {
	User UserResponse `json:"user"`
}

type StatsResponse struct {
	TotalAppointments   int `json:"total_appointments"`
	PendingAppointments int `json:"pending_appointments"`
	TotalServices       int `json:"total_services"`
	TotalUsers          int `json:"total_users"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a appointment.Appointment, view lifecycle.View) AppointmentResponse {
	return AppointmentResponse{
		ID:           a.ID,
		CustomerID:   a.CustomerID,
		LashArtistID: a.ArtistID,
		ServiceID:    a.ServiceID,
		BookingDate:  a.BookingDate.Format("2006-01-02"),
		BookingTime:  a.BookingTime,
		Notes:        a.Notes,
		CreatedAt:    a.CreatedAt,
		ApprovedAt:   a.ApprovedAt,
		CompletedAt:  a.CompletedAt,
		CancelledAt:  a.CancelledAt,
		View:         view,
	}
}

func toServiceResponse(s appointment.Service) ServiceResponse {
	return ServiceResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		PriceCents:  s.PriceCents,
		DurationMin: s.DurationMin,
	}
}

func toUserResponse(u appointment.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Email:     u.Email,
		UserType:  string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}
