// Package bookingapi is a typed client for the studio booking API. Credentials
// travel in an explicit Session on every call and records are validated at
// the boundary before the lifecycle package sees them.
package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maryuh24/lashesstudio/internal/lifecycle"
	"github.com/maryuh24/lashesstudio/internal/slot"
)

var (
	ErrSessionExpired       = errors.New("session expired or invalid")
	ErrUnknownTransition    = errors.New("unknown transition")
	ErrTransitionNotOffered = errors.New("transition not available to this role")
)

// Session is the credential for one signed-in user.
type Session struct {
	BaseURL string
	Token   string
	Role    lifecycle.Role
}

// APIError is a non-2xx response from the booking API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("booking api: %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("booking api: %d %s: %s", e.Status, e.Code, e.Message)
}

// Is lets errors.Is(err, ErrSessionExpired) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrSessionExpired && e.Status == http.StatusUnauthorized
}

type Client struct {
	http *http.Client
	loc  *time.Location
}

// New returns a client that reads booking dates in loc. A nil httpClient uses
// a client with a 10 second timeout.
func New(httpClient *http.Client, loc *time.Location) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Client{http: httpClient, loc: loc}
}

func (c *Client) do(ctx context.Context, s Session, method, path string, query url.Values, in, out any) error {
	u := strings.TrimRight(s.BaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, &body) == nil {
			apiErr.Code, apiErr.Message = body.Error, body.Details
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// AvailableSlots lists the open slots for one artist on one day.
func (c *Client) AvailableSlots(ctx context.Context, s Session, artistID uuid.UUID, date time.Time) ([]slot.Slot, error) {
	q := url.Values{}
	q.Set("lash_artist_id", artistID.String())
	q.Set("date", date.Format("2006-01-02"))

	var body struct {
		AvailableSlots []slot.Slot `json:"available_slots"`
	}
	if err := c.do(ctx, s, http.MethodGet, "/api/available-slots", q, nil, &body); err != nil {
		return nil, err
	}
	if body.AvailableSlots == nil {
		return []slot.Slot{}, nil
	}
	return body.AvailableSlots, nil
}

// BookingRequest asks for one catalog slot.
type BookingRequest struct {
	ServiceID    uuid.UUID `json:"service_id"`
	LashArtistID uuid.UUID `json:"lash_artist_id"`
	BookingDate  string    `json:"booking_date"`
	BookingTime  string    `json:"booking_time"`
	Notes        string    `json:"notes,omitempty"`
}

// CreateBooking submits a booking request. The new booking is pending.
func (c *Client) CreateBooking(ctx context.Context, s Session, req BookingRequest) (Booking, error) {
	var rec Record
	if err := c.do(ctx, s, http.MethodPost, "/api/bookings", nil, req, &rec); err != nil {
		return Booking{}, err
	}
	return rec.Booking(c.loc)
}

func (c *Client) list(ctx context.Context, s Session, path string, q url.Values) ([]Booking, error) {
	var body struct {
		Appointments []Record `json:"appointments"`
	}
	if err := c.do(ctx, s, http.MethodGet, path, q, nil, &body); err != nil {
		return nil, err
	}
	return parseRecords(body.Appointments, c.loc)
}

func statusQuery(status lifecycle.Status) url.Values {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	return q
}

// MyBookings lists the signed-in customer's bookings. Valid bookings are
// returned even when err wraps ErrMalformedRecord.
func (c *Client) MyBookings(ctx context.Context, s Session, status lifecycle.Status) ([]Booking, error) {
	return c.list(ctx, s, "/api/bookings/my", statusQuery(status))
}

func (c *Client) ArtistAppointments(ctx context.Context, s Session, status lifecycle.Status) ([]Booking, error) {
	return c.list(ctx, s, "/api/lash-artist/appointments", statusQuery(status))
}

func (c *Client) AdminAppointments(ctx context.Context, s Session, status lifecycle.Status, search string) ([]Booking, error) {
	q := statusQuery(status)
	if search != "" {
		q.Set("search", search)
	}
	return c.list(ctx, s, "/api/admin/appointments", q)
}

func transitionRoute(role lifecycle.Role, t lifecycle.Transition, id uuid.UUID) (method, path string, err error) {
	switch t {
	case lifecycle.TransitionApprove, lifecycle.TransitionDecline:
		if role != lifecycle.RoleAdmin {
			return "", "", ErrTransitionNotOffered
		}
		return http.MethodPatch, "/api/admin/appointments/" + id.String() + "/" + string(t), nil
	case lifecycle.TransitionComplete:
		if role != lifecycle.RoleArtist {
			return "", "", ErrTransitionNotOffered
		}
		return http.MethodPatch, "/api/lash-artist/appointments/" + id.String() + "/complete", nil
	case lifecycle.TransitionCancel:
		switch role {
		case lifecycle.RoleAdmin:
			return http.MethodPatch, "/api/admin/appointments/" + id.String() + "/cancel", nil
		case lifecycle.RoleCustomer:
			return http.MethodDelete, "/api/bookings/" + id.String(), nil
		}
		return "", "", ErrTransitionNotOffered
	default:
		return "", "", ErrUnknownTransition
	}
}

// RequestTransition asks the backend to apply t. The backend re-validates;
// the returned booking is its authoritative state.
func (c *Client) RequestTransition(ctx context.Context, s Session, id uuid.UUID, t lifecycle.Transition) (Booking, error) {
	method, path, err := transitionRoute(s.Role, t, id)
	if err != nil {
		return Booking{}, err
	}
	var rec Record
	if err := c.do(ctx, s, method, path, nil, nil, &rec); err != nil {
		return Booking{}, err
	}
	return rec.Booking(c.loc)
}

// Views classifies every booking for role against a single clock reading.
func (c *Client) Views(bookings []Booking, now time.Time, role lifecycle.Role) []BookingView {
	out := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, BookingView{
			Booking: b,
			View:    lifecycle.Evaluate(b.Snapshot(), now, role, c.loc),
		})
	}
	return out
}
