package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/maryuh24/lashesstudio/internal/config"
	"github.com/maryuh24/lashesstudio/internal/lifecycle"
	"github.com/maryuh24/lashesstudio/internal/metrics"
	redisclient "github.com/maryuh24/lashesstudio/internal/redis"
	"github.com/maryuh24/lashesstudio/internal/slot"
	"github.com/maryuh24/lashesstudio/pkg/logging"
)

const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentApproved  = "APPOINTMENT_APPROVED"
	EventAppointmentDeclined  = "APPOINTMENT_DECLINED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentLapsed    = "APPOINTMENT_LAPSED"
)

const dateLayout = "2006-01-02"

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

var (
	ErrArtistNotFound          = errors.New("lash artist not found")
	ErrCustomerNotFound        = errors.New("customer not found")
	ErrInvalidDate             = errors.New("date must be YYYY-MM-DD")
	ErrDateInPast              = errors.New("date is in the past")
	ErrInvalidSlot             = errors.New("time is not a bookable slot")
	ErrSlotInPast              = errors.New("slot has already started")
	ErrSlotBeingBooked         = errors.New("slot is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrCompleteTooEarly        = errors.New("appointment cannot be completed before its slot starts")
	ErrForbidden               = errors.New("not allowed for this role")
	ErrInvalidStatusFilter     = errors.New("unknown status filter")
	ErrInvalidService          = errors.New("service needs a name, a non-negative price and a positive duration")
)

var transitionEvents = map[lifecycle.Transition]string{
	lifecycle.TransitionApprove:  EventAppointmentApproved,
	lifecycle.TransitionDecline:  EventAppointmentDeclined,
	lifecycle.TransitionComplete: EventAppointmentCompleted,
	lifecycle.TransitionCancel:   EventAppointmentCancelled,
}

type Service struct {
	repo    Repository
	locker  redisclient.Locker
	metrics *metrics.BookingMetrics
	logger  *logging.Logger
	loc     *time.Location
	now     func() time.Time

	hashCost int
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithPasswordCost sets the bcrypt cost for new password hashes.
func WithPasswordCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		locker: locker,
		loc:    cfg.StudioLocation,
		now:    time.Now,

		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}
	return s
}

// Location is the wall clock booking dates and times are read in.
func (s *Service) Location() *time.Location { return s.loc }

// Now is the service clock in the studio location.
func (s *Service) Now() time.Time { return s.now().In(s.loc) }

func (s *Service) parseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), s.loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

func (s *Service) pastDue(a *Appointment) bool {
	scheduled, _ := lifecycle.ScheduledAt(a.BookingDate, a.BookingTime, s.loc)
	return lifecycle.IsPastDue(scheduled, s.Now())
}

func (s *Service) loadArtist(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrArtistNotFound
		}
		return nil, fmt.Errorf("load artist: %w", err)
	}
	if u.Role != lifecycle.RoleArtist {
		return nil, ErrArtistNotFound
	}
	return u, nil
}

// AvailableSlots returns the catalog slots still bookable for one artist on one day.
// On the current day slots that already started are dropped too.
func (s *Service) AvailableSlots(ctx context.Context, artistID uuid.UUID, date string) ([]slot.Slot, error) {
	day, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadArtist(ctx, artistID); err != nil {
		return nil, err
	}

	now := s.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if day.Before(today) {
		return nil, ErrDateInPast
	}

	taken, err := s.repo.ListTakenStarts(ctx, artistID, day)
	if err != nil {
		return nil, fmt.Errorf("list taken slots: %w", err)
	}

	open := slot.Available(slot.All(), taken)
	if day.After(today) {
		return open, nil
	}

	upcoming := make([]slot.Slot, 0, len(open))
	for _, sl := range open {
		scheduled, ok := lifecycle.ScheduledAt(day, sl.Start, s.loc)
		if ok && lifecycle.IsPastDue(scheduled, now) {
			continue
		}
		upcoming = append(upcoming, sl)
	}
	return upcoming, nil
}

// CreateBooking reserves a slot for a customer as a pending booking.
// A distributed lock per artist/day/start keeps two requests from both
// passing the availability re-check; the partial unique index is the backstop.
func (s *Service) CreateBooking(ctx context.Context, customerID uuid.UUID, in CreateBookingInput) (*Appointment, error) {
	appt, err := s.createBooking(ctx, customerID, in)
	outcome := "created"
	if err != nil {
		outcome = bookingOutcome(err)
	}
	s.metrics.ObserveBooking(outcome)
	return appt, err
}

func (s *Service) createBooking(ctx context.Context, customerID uuid.UUID, in CreateBookingInput) (*Appointment, error) {
	if _, err := s.repo.GetUserByID(ctx, customerID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("load customer: %w", err)
	}

	if _, err := s.repo.GetServiceByID(ctx, in.ServiceID); err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load service: %w", err)
	}

	if _, err := s.loadArtist(ctx, in.ArtistID); err != nil {
		return nil, err
	}

	day, err := s.parseDate(in.Date)
	if err != nil {
		return nil, err
	}

	if !slot.IsCatalogStart(in.Time) {
		return nil, ErrInvalidSlot
	}
	start := slot.Normalize(in.Time)

	scheduled, _ := lifecycle.ScheduledAt(day, start, s.loc)
	if lifecycle.IsPastDue(scheduled, s.Now()) {
		return nil, ErrSlotInPast
	}

	key := redisclient.SlotKey{ArtistID: in.ArtistID, Date: day.Format(dateLayout), Start: start}

	var created *Appointment
	err = s.locker.WithSlotLock(ctx, key, func(lockCtx context.Context) error {
		// re-check inside the critical section
		taken, err := s.repo.ListTakenStarts(lockCtx, in.ArtistID, day)
		if err != nil {
			return fmt.Errorf("list taken slots: %w", err)
		}
		for _, t := range taken {
			if slot.Normalize(t) == start {
				return ErrSlotTaken
			}
		}

		appt, err := s.repo.CreatePendingAppointment(lockCtx, Appointment{
			CustomerID:  customerID,
			ArtistID:    in.ArtistID,
			ServiceID:   in.ServiceID,
			BookingDate: day,
			BookingTime: start,
			Notes:       strings.TrimSpace(in.Notes),
		})
		if err != nil {
			if errors.Is(err, ErrSlotTaken) {
				return err
			}
			return fmt.Errorf("create pending appointment: %w", err)
		}
		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentCreated, map[string]any{
			"customer_id":    customerID.String(),
			"lash_artist_id": in.ArtistID.String(),
			"service_id":     in.ServiceID.String(),
			"booking_date":   key.Date,
			"booking_time":   start,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logger.Info("booking created",
		"appointment_id", created.ID,
		"lash_artist_id", created.ArtistID,
		"booking_date", key.Date,
		"booking_time", start,
	)
	return created, nil
}

func bookingOutcome(err error) string {
	switch {
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrSlotBeingBooked):
		return "contended"
	case errors.Is(err, ErrInvalidSlot), errors.Is(err, ErrSlotInPast), errors.Is(err, ErrInvalidDate):
		return "rejected"
	case errors.Is(err, ErrCustomerNotFound), errors.Is(err, ErrArtistNotFound), errors.Is(err, ErrServiceNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// Listings

func (s *Service) ListForCustomer(ctx context.Context, customerID uuid.UUID, f ListFilter) ([]AppointmentDetail, error) {
	q, err := buildQuery(f)
	if err != nil {
		return nil, err
	}
	q.CustomerID = &customerID
	return s.list(ctx, q)
}

func (s *Service) ListForArtist(ctx context.Context, artistID uuid.UUID, f ListFilter) ([]AppointmentDetail, error) {
	q, err := buildQuery(f)
	if err != nil {
		return nil, err
	}
	q.ArtistID = &artistID
	return s.list(ctx, q)
}

func (s *Service) ListAll(ctx context.Context, f ListFilter) ([]AppointmentDetail, error) {
	q, err := buildQuery(f)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, q)
}

func (s *Service) list(ctx context.Context, q ListQuery) ([]AppointmentDetail, error) {
	items, err := s.repo.ListAppointments(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return items, nil
}

func buildQuery(f ListFilter) (ListQuery, error) {
	q := ListQuery{
		Search: strings.TrimSpace(f.Search),
		Limit:  f.Limit,
		Offset: f.Offset,
	}
	if f.Status != "" {
		st, ok := lifecycle.ParseStatus(f.Status)
		if !ok {
			return ListQuery{}, ErrInvalidStatusFilter
		}
		q.Status = st
	}
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	if q.Limit > maxListLimit {
		q.Limit = maxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q, nil
}

// Transitions

func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, lifecycle.TransitionApprove, nil)
}

func (s *Service) Decline(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, lifecycle.TransitionDecline, nil)
}

// Complete marks an artist's own confirmed booking as done once its slot started.
func (s *Service) Complete(ctx context.Context, artistID, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, lifecycle.TransitionComplete, func(a *Appointment) error {
		if a.ArtistID != artistID {
			return ErrAppointmentNotFound
		}
		return nil
	})
}

// Cancel lets customers withdraw their own pending bookings and admins cancel
// anything still pending or confirmed.
func (s *Service) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*Appointment, error) {
	switch actor.Role {
	case lifecycle.RoleAdmin:
		return s.transition(ctx, id, lifecycle.TransitionCancel, nil)
	case lifecycle.RoleCustomer:
		return s.transition(ctx, id, lifecycle.TransitionCancel, func(a *Appointment) error {
			if a.CustomerID != actor.UserID {
				return ErrAppointmentNotFound
			}
			if a.Status != lifecycle.StatusPending {
				return ErrInvalidStatusTransition
			}
			return nil
		})
	default:
		s.metrics.ObserveTransition(string(lifecycle.TransitionCancel), "forbidden")
		return nil, ErrForbidden
	}
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, t lifecycle.Transition, check func(*Appointment) error) (*Appointment, error) {
	updated, err := s.applyTransition(ctx, id, t, check)
	outcome := "ok"
	if err != nil {
		outcome = transitionOutcome(err)
	}
	s.metrics.ObserveTransition(string(t), outcome)
	return updated, err
}

func (s *Service) applyTransition(ctx context.Context, id uuid.UUID, t lifecycle.Transition, check func(*Appointment) error) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if check != nil {
		if err := check(appt); err != nil {
			return nil, err
		}
	}

	pastDue := s.pastDue(appt)
	if !lifecycle.Permits(t, appt.Status, pastDue) {
		if t == lifecycle.TransitionComplete && appt.Status == lifecycle.StatusConfirmed && !pastDue {
			return nil, ErrCompleteTooEarly
		}
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, t.Target(), s.now())
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// status moved underneath us
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("%s appointment: %w", t, err)
	}

	s.logEvent(ctx, updated.ID, transitionEvents[t], map[string]any{
		"from": string(appt.Status),
		"to":   string(updated.Status),
	})
	s.logger.Info("appointment transitioned",
		"appointment_id", updated.ID,
		"transition", string(t),
		"from", string(appt.Status),
		"to", string(updated.Status),
	)
	return updated, nil
}

func transitionOutcome(err error) string {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidStatusTransition):
		return "invalid"
	case errors.Is(err, ErrCompleteTooEarly):
		return "too_early"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

// LapsePendingAppointments is intended to be called by the worker periodically.
// Pending bookings whose slot already started without approval are cancelled.
func (s *Service) LapsePendingAppointments(ctx context.Context) (int, error) {
	now := s.Now()
	candidates, err := s.repo.FindPendingOnOrBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find pending appointments: %w", err)
	}

	lapsed := 0
	for i := range candidates {
		appt := &candidates[i]
		if !s.pastDue(appt) {
			continue
		}
		_, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, lifecycle.StatusPending, lifecycle.StatusCancelled, s.now())
		if err != nil {
			if !errors.Is(err, ErrAppointmentNotFound) {
				s.logger.Error("failed to lapse appointment", "appointment_id", appt.ID, "error", err)
			}
			continue
		}
		lapsed++
		s.logEvent(ctx, appt.ID, EventAppointmentLapsed, map[string]any{
			"reason":       "slot_elapsed",
			"booking_date": appt.BookingDate.Format(dateLayout),
			"booking_time": appt.BookingTime,
		})
	}

	s.metrics.ObserveLapsed(lapsed)
	return lapsed, nil
}

// Catalog

func (s *Service) ListServices(ctx context.Context, search string) ([]Service, error) {
	items, err := s.repo.ListServices(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return items, nil
}

func (s *Service) ListArtists(ctx context.Context) ([]User, error) {
	items, err := s.repo.ListArtists(ctx)
	if err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}
	return items, nil
}

func validateService(in ServiceInput) (Service, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.PriceCents < 0 || in.DurationMin <= 0 {
		return Service{}, ErrInvalidService
	}
	return Service{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		PriceCents:  in.PriceCents,
		DurationMin: in.DurationMin,
	}, nil
}

func (s *Service) CreateService(ctx context.Context, in ServiceInput) (*Service, error) {
	svc, err := validateService(in)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreateService(ctx, svc)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	return created, nil
}

func (s *Service) UpdateService(ctx context.Context, id uuid.UUID, in ServiceInput) (*Service, error) {
	svc, err := validateService(in)
	if err != nil {
		return nil, err
	}
	svc.ID = id
	updated, err := s.repo.UpdateService(ctx, svc)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update service: %w", err)
	}
	return updated, nil
}

func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteService(ctx, id); err != nil {
		if errors.Is(err, ErrServiceNotFound) || errors.Is(err, ErrServiceInUse) {
			return err
		}
		return fmt.Errorf("delete service: %w", err)
	}
	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal event payload", "event_type", eventType, "error", err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("failed to insert event log",
			"event_type", eventType,
			"appointment_id", appointmentID,
			"error", err,
		)
	}
}
