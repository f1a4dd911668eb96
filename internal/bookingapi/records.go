package bookingapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maryuh24/lashesstudio/internal/lifecycle"
	"github.com/maryuh24/lashesstudio/internal/slot"
)

// ErrMalformedRecord marks a server record that could not be parsed into a Booking.
var ErrMalformedRecord = errors.New("malformed booking record")

// Record is the wire shape of one appointment as the booking API returns it.
type Record struct {
	ID           string `json:"id"`
	CustomerID   string `json:"customer_id"`
	LashArtistID string `json:"lash_artist_id"`
	ServiceID    string `json:"service_id"`
	BookingDate  string `json:"booking_date"`
	BookingTime  string `json:"booking_time"`
	Status       string `json:"status"`
	Notes        string `json:"notes"`
	CustomerName string `json:"customer_name"`
	ArtistName   string `json:"lash_artist_name"`
	ServiceName  string `json:"service_name"`
}

// Booking is a validated Record.
type Booking struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	ArtistID     uuid.UUID
	ServiceID    uuid.UUID
	Date         time.Time
	Start        string // HH:MM
	Status       lifecycle.Status
	Notes        string
	CustomerName string
	ArtistName   string
	ServiceName  string
}

func (b Booking) Snapshot() lifecycle.Snapshot {
	return lifecycle.Snapshot{Status: b.Status, BookingDate: b.Date, BookingTime: b.Start}
}

func malformed(id, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrMalformedRecord, id, fmt.Sprintf(format, args...))
}

// Booking validates r. Dates are read in loc; a nil loc means time.Local.
func (r Record) Booking(loc *time.Location) (Booking, error) {
	if loc == nil {
		loc = time.Local
	}

	var b Booking
	ids := []struct {
		field string
		raw   string
		dst   *uuid.UUID
	}{
		{"id", r.ID, &b.ID},
		{"customer_id", r.CustomerID, &b.CustomerID},
		{"lash_artist_id", r.LashArtistID, &b.ArtistID},
		{"service_id", r.ServiceID, &b.ServiceID},
	}
	for _, f := range ids {
		id, err := uuid.Parse(f.raw)
		if err != nil {
			return Booking{}, malformed(r.ID, "%s is not a UUID", f.field)
		}
		*f.dst = id
	}

	// Some backends send full timestamps for DATE columns.
	rawDate := r.BookingDate
	if len(rawDate) > len("2006-01-02") {
		rawDate = rawDate[:len("2006-01-02")]
	}
	date, err := time.ParseInLocation("2006-01-02", rawDate, loc)
	if err != nil {
		return Booking{}, malformed(r.ID, "booking_date %q", r.BookingDate)
	}
	b.Date = date

	if _, _, ok := slot.ParseStart(r.BookingTime); !ok {
		return Booking{}, malformed(r.ID, "booking_time %q", r.BookingTime)
	}
	b.Start = slot.Normalize(r.BookingTime)

	// Statuses this client does not know yet are kept; Evaluate reports them as
	// action none.
	status := strings.TrimSpace(r.Status)
	if status == "" {
		return Booking{}, malformed(r.ID, "missing status")
	}
	b.Status = lifecycle.Status(status)

	b.Notes = r.Notes
	b.CustomerName = r.CustomerName
	b.ArtistName = r.ArtistName
	b.ServiceName = r.ServiceName
	return b, nil
}

// parseRecords keeps every valid record. The returned error joins one
// ErrMalformedRecord per rejected record.
func parseRecords(records []Record, loc *time.Location) ([]Booking, error) {
	out := make([]Booking, 0, len(records))
	var errs []error
	for _, r := range records {
		b, err := r.Booking(loc)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, b)
	}
	return out, errors.Join(errs...)
}

// BookingView pairs a booking with its classification for one viewer.
type BookingView struct {
	Booking
	View lifecycle.View
}
