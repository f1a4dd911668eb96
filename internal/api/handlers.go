package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maryuh24/lashesstudio/internal/appointment"
	"github.com/maryuh24/lashesstudio/internal/lifecycle"
	redisclient "github.com/maryuh24/lashesstudio/internal/redis"
	"github.com/maryuh24/lashesstudio/internal/slot"
)

// BookingService is the part of *appointment.Service the handlers call.
type BookingService interface {
	Now() time.Time
	Location() *time.Location

	AvailableSlots(ctx context.Context, artistID uuid.UUID, date string) ([]slot.Slot, error)
	CreateBooking(ctx context.Context, customerID uuid.UUID, in appointment.CreateBookingInput) (*appointment.Appointment, error)

	ListForCustomer(ctx context.Context, customerID uuid.UUID, f appointment.ListFilter) ([]appointment.AppointmentDetail, error)
	ListForArtist(ctx context.Context, artistID uuid.UUID, f appointment.ListFilter) ([]appointment.AppointmentDetail, error)
	ListAll(ctx context.Context, f appointment.ListFilter) ([]appointment.AppointmentDetail, error)

	Approve(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Decline(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Complete(ctx context.Context, artistID, id uuid.UUID) (*appointment.Appointment, error)
	Cancel(ctx context.Context, actor appointment.Actor, id uuid.UUID) (*appointment.Appointment, error)

	ListServices(ctx context.Context, search string) ([]appointment.Service, error)
	ListArtists(ctx context.Context) ([]appointment.User, error)
	CreateService(ctx context.Context, in appointment.ServiceInput) (*appointment.Service, error)
	UpdateService(ctx context.Context, id uuid.UUID, in appointment.ServiceInput) (*appointment.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error

	Me(ctx context.Context, userID uuid.UUID) (*appointment.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	ListUsers(ctx context.Context, f appointment.UserFilter) ([]appointment.User, error)
	CreateUser(ctx context.Context, in appointment.UserInput) (*appointment.User, error)
	UpdateUser(ctx context.Context, actor appointment.Actor, id uuid.UUID, in appointment.UserInput) (*appointment.User, error)
	DeleteUser(ctx context.Context, actor appointment.Actor, id uuid.UUID) error
	Stats(ctx context.Context) (*appointment.Stats, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func mustSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	s, ok := SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing session")
	}
	return s, ok
}

func listFilter(r *http.Request) appointment.ListFilter {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return appointment.ListFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Limit:  limit,
		Offset: offset,
	}
}

// view classifies one record for the session with a single clock reading.
func view(svc BookingService, a appointment.Appointment, role lifecycle.Role, now time.Time) lifecycle.View {
	return lifecycle.Evaluate(a.Snapshot(), now, role, svc.Location())
}

func writeAppointment(w http.ResponseWriter, status int, svc BookingService, session Session, a *appointment.Appointment) {
	writeJSON(w, status, toAppointmentResponse(*a, view(svc, *a, session.Role, svc.Now())))
}

func writeAppointmentList(w http.ResponseWriter, svc BookingService, session Session, items []appointment.AppointmentDetail) {
	now := svc.Now()
	resp := AppointmentListResponse{Appointments: make([]AppointmentResponse, 0, len(items))}
	for _, d := range items {
		ar := toAppointmentResponse(d.Appointment, view(svc, d.Appointment, session.Role, now))
		ar.CustomerName = d.CustomerName
		ar.ArtistName = d.ArtistName
		ar.ServiceName = d.ServiceName
		resp.Appointments = append(resp.Appointments, ar)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Catalog

func listSlotsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, SlotsResponse{Slots: slot.All()})
	}
}

func listServicesHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListServices(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		resp := make([]ServiceResponse, 0, len(items))
		for _, s := range items {
			resp = append(resp, toServiceResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listArtistsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListArtists(r.Context())
		if err != nil {
			handleServiceError(w, err)
			return
		}
		resp := make([]ArtistResponse, 0, len(items))
		for _, u := range items {
			resp = append(resp, ArtistResponse{ID: u.ID, Name: u.Name, Email: u.Email})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func availableSlotsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rawArtist, date := q.Get("lash_artist_id"), q.Get("date")
		if rawArtist == "" || date == "" {
			writeError(w, http.StatusBadRequest, "missing_parameters", "lash_artist_id and date are required")
			return
		}
		artistID, err := uuid.Parse(rawArtist)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_lash_artist_id", "lash_artist_id must be a valid UUID")
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), artistID, date)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, AvailableSlotsResponse{AvailableSlots: slots})
	}
}

func createServiceHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		created, err := svc.CreateService(r.Context(), appointment.ServiceInput(req))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toServiceResponse(*created))
	}
}

func updateServiceHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req ServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		updated, err := svc.UpdateService(r.Context(), id, appointment.ServiceInput(req))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toServiceResponse(*updated))
	}
}

func deleteServiceHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := svc.DeleteService(r.Context(), id); err != nil {
			handleServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Bookings

func createBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mustSession(w, r)
		if !ok {
			return
		}

		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}
		artistID, err := uuid.Parse(req.LashArtistID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_lash_artist_id", "lash_artist_id must be a valid UUID")
			return
		}

		appt, err := svc.CreateBooking(r.Context(), session.UserID, appointment.CreateBookingInput{
			ServiceID: serviceID,
			ArtistID:  artistID,
			Date:      req.BookingDate,
			Time:      req.BookingTime,
			Notes:     req.Notes,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeAppointment(w, http.StatusCreated, svc, session, appt)
	}
}

func myBookingsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mustSession(w, r)
		if !ok {
			return
		}
		items, err := svc.ListForCustomer(r.Context(), session.UserID, listFilter(r))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeAppointmentList(w, svc, session, items)
	}
}

func artistAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mustSession(w, r)
		if !ok {
			return
		}
		items, err := svc.ListForArtist(r.Context(), session.UserID, listFilter(r))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeAppointmentList(w, svc, session, items)
	}
}

func adminAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mustSession(w, r)
		if !ok {
			return
		}
		items, err := svc.ListAll(r.Context(), listFilter(r))
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeAppointmentList(w, svc, session, items)
	}
}

type transitionFunc func(ctx context.Context, session Session, id uuid.UUID) (*appointment.Appointment, error)

func transitionHandler(svc BookingService, do transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := mustSession(w, r)
		if !ok {
			return
		}
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		appt, err := do(r.Context(), session, id)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		writeAppointment(w, http.StatusOK, svc, session, appt)
	}
}

func approveHandler(svc BookingService) http.HandlerFunc {
	return transitionHandler(svc, func(ctx context.Context, _ Session, id uuid.UUID) (*appointment.Appointment, error) {
		return svc.Approve(ctx, id)
	})
}

func declineHandler(svc BookingService) http.HandlerFunc {
	return transitionHandler(svc, func(ctx context.Context, _ Session, id uuid.UUID) (*appointment.Appointment, error) {
		return svc.Decline(ctx, id)
	})
}

func completeHandler(svc BookingService) http.HandlerFunc {
	return transitionHandler(svc, func(ctx context.Context, s Session, id uuid.UUID) (*appointment.Appointment, error) {
		return svc.Complete(ctx, s.UserID, id)
	})
}

func cancelHandler(svc BookingService) http.HandlerFunc {
	return transitionHandler(svc, func(ctx context.Context, s Session, id uuid.UUID) (*appointment.Appointment, error) {
		return svc.Cancel(ctx, s.Actor(), id)
	})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrArtistNotFound):
		writeError(w, http.StatusNotFound, "lash_artist_not_found", err.Error())
	case errors.Is(err, appointment.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, "customer_not_found", err.Error())
	case errors.Is(err, appointment.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, appointment.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, appointment.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, appointment.ErrDateInPast):
		writeError(w, http.StatusBadRequest, "date_in_past", err.Error())
	case errors.Is(err, appointment.ErrInvalidSlot):
		writeError(w, http.StatusBadRequest, "invalid_slot", err.Error())
	case errors.Is(err, appointment.ErrSlotInPast):
		writeError(w, http.StatusBadRequest, "slot_in_past", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusFilter):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, appointment.ErrInvalidService):
		writeError(w, http.StatusBadRequest, "invalid_service", err.Error())
	case errors.Is(err, appointment.ErrInvalidUser):
		writeError(w, http.StatusBadRequest, "invalid_user", err.Error())
	case errors.Is(err, appointment.ErrInvalidRoleFilter):
		writeError(w, http.StatusBadRequest, "invalid_user_type", err.Error())
	case errors.Is(err, appointment.ErrInvalidPassword):
		writeError(w, http.StatusBadRequest, "invalid_password", err.Error())
	case errors.Is(err, appointment.ErrWrongPassword):
		writeError(w, http.StatusBadRequest, "wrong_password", err.Error())
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, appointment.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrCompleteTooEarly):
		writeError(w, http.StatusConflict, "complete_too_early", err.Error())
	case errors.Is(err, appointment.ErrServiceInUse):
		writeError(w, http.StatusConflict, "service_in_use", err.Error())
	case errors.Is(err, appointment.ErrUserExists):
		writeError(w, http.StatusConflict, "user_exists", err.Error())
	case errors.Is(err, appointment.ErrUserInUse):
		writeError(w, http.StatusConflict, "user_in_use", err.Error())
	case errors.Is(err, appointment.ErrSelfLockout):
		writeError(w, http.StatusConflict, "self_lockout", err.Error())
	case errors.Is(err, appointment.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
