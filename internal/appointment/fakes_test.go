package appointment

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maryuh24/lashesstudio/internal/lifecycle"
	redisclient "github.com/maryuh24/lashesstudio/internal/redis"
)

type fakeRepo struct {
	mu       sync.Mutex
	users    map[uuid.UUID]User
	services map[uuid.UUID]Service
	appts    map[uuid.UUID]Appointment
	events   []EventLog
	hashes   map[uuid.UUID]string

	// raceStatus, when set, is written before the next compare-and-set runs.
	raceStatus lifecycle.Status
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    map[uuid.UUID]User{},
		services: map[uuid.UUID]Service{},
		appts:    map[uuid.UUID]Appointment{},
		hashes:   map[uuid.UUID]string{},
	}
}

func (r *fakeRepo) addUser(name string, role lifecycle.Role) uuid.UUID {
	id := uuid.New()
	lower := strings.ToLower(name)
	r.users[id] = User{ID: id, Name: name, Username: lower, Email: lower + "@example.com", Role: role}
	return id
}

func (r *fakeRepo) addService(name string) uuid.UUID {
	id := uuid.New()
	r.services[id] = Service{ID: id, Name: name, PriceCents: 8000, DurationMin: 120}
	return id
}

func (r *fakeRepo) addAppointment(a Appointment) uuid.UUID {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.appts[a.ID] = a
	return a.ID
}

func (r *fakeRepo) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeRepo) ListArtists(_ context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []User{}
	for _, u := range r.users {
		if u.Role == lifecycle.RoleArtist {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeRepo) ListUsers(_ context.Context, q UserQuery) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []User{}
	for _, u := range r.users {
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(u.Name+" "+u.Username+" "+u.Email), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeRepo) duplicateLocked(u User) bool {
	for _, other := range r.users {
		if other.ID != u.ID && (other.Email == u.Email || other.Username == u.Username) {
			return true
		}
	}
	return false
}

func (r *fakeRepo) CreateUser(_ context.Context, u User, passwordHash string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = uuid.New()
	if r.duplicateLocked(u) {
		return nil, ErrUserExists
	}
	r.users[u.ID] = u
	r.hashes[u.ID] = passwordHash
	return &u, nil
}

func (r *fakeRepo) UpdateUser(_ context.Context, u User, passwordHash string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return nil, ErrUserNotFound
	}
	if r.duplicateLocked(u) {
		return nil, ErrUserExists
	}
	r.users[u.ID] = u
	if passwordHash != "" {
		r.hashes[u.ID] = passwordHash
	}
	return &u, nil
}

func (r *fakeRepo) DeleteUser(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrUserNotFound
	}
	for _, a := range r.appts {
		if a.CustomerID == id || a.ArtistID == id {
			return ErrUserInUse
		}
	}
	delete(r.users, id)
	delete(r.hashes, id)
	return nil
}

func (r *fakeRepo) GetPasswordHash(_ context.Context, id uuid.UUID) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return "", ErrUserNotFound
	}
	return r.hashes[id], nil
}

func (r *fakeRepo) SetPasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrUserNotFound
	}
	r.hashes[id] = hash
	return nil
}

func (r *fakeRepo) CountStats(_ context.Context) (*Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := Stats{
		TotalAppointments: len(r.appts),
		TotalServices:     len(r.services),
		TotalUsers:        len(r.users),
	}
	for _, a := range r.appts {
		if a.Status == lifecycle.StatusPending {
			st.PendingAppointments++
		}
	}
	return &st, nil
}

func (r *fakeRepo) GetServiceByID(_ context.Context, id uuid.UUID) (*Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return &s, nil
}

func (r *fakeRepo) ListServices(_ context.Context, search string) ([]Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Service{}
	for _, s := range r.services {
		if search == "" || strings.Contains(strings.ToLower(s.Name), strings.ToLower(search)) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeRepo) CreateService(_ context.Context, svc Service) (*Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	svc.ID = uuid.New()
	r.services[svc.ID] = svc
	return &svc, nil
}

func (r *fakeRepo) UpdateService(_ context.Context, svc Service) (*Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[svc.ID]; !ok {
		return nil, ErrServiceNotFound
	}
	r.services[svc.ID] = svc
	return &svc, nil
}

func (r *fakeRepo) DeleteService(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[id]; !ok {
		return ErrServiceNotFound
	}
	for _, a := range r.appts {
		if a.ServiceID == id {
			return ErrServiceInUse
		}
	}
	delete(r.services, id)
	return nil
}

func (r *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *fakeRepo) ListAppointments(_ context.Context, q ListQuery) ([]AppointmentDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []AppointmentDetail{}
	for _, a := range r.appts {
		if q.CustomerID != nil && a.CustomerID != *q.CustomerID {
			continue
		}
		if q.ArtistID != nil && a.ArtistID != *q.ArtistID {
			continue
		}
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		d := AppointmentDetail{
			Appointment:  a,
			CustomerName: r.users[a.CustomerID].Name,
			ArtistName:   r.users[a.ArtistID].Name,
			ServiceName:  r.services[a.ServiceID].Name,
		}
		if q.Search != "" && !strings.Contains(d.CustomerName+" "+d.ArtistName+" "+d.ServiceName, q.Search) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingTime < out[j].BookingTime })
	return out, nil
}

func (r *fakeRepo) ListTakenStarts(_ context.Context, artistID uuid.UUID, date time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	taken := []string{}
	for _, a := range r.appts {
		if a.ArtistID != artistID || !sameDay(a.BookingDate, date) {
			continue
		}
		if a.Status == lifecycle.StatusPending || a.Status == lifecycle.StatusConfirmed {
			taken = append(taken, a.BookingTime)
		}
	}
	return taken, nil
}

func (r *fakeRepo) CreatePendingAppointment(_ context.Context, a Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = uuid.New()
	a.Status = lifecycle.StatusPending
	r.appts[a.ID] = a
	return &a, nil
}

func (r *fakeRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to lifecycle.Status, at time.Time) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if r.raceStatus != "" {
		a.Status = r.raceStatus
		r.raceStatus = ""
	}
	if a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = at
	switch to {
	case lifecycle.StatusConfirmed:
		a.ApprovedAt = &at
	case lifecycle.StatusCompleted:
		a.CompletedAt = &at
	case lifecycle.StatusCancelled:
		a.CancelledAt = &at
	}
	r.appts[id] = a
	return &a, nil
}

func (r *fakeRepo) FindPendingOnOrBefore(_ context.Context, date time.Time) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, a := range r.appts {
		if a.Status == lifecycle.StatusPending && !civilDate(a.BookingDate).After(civilDate(date)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *fakeRepo) eventTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.EventType)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	return civilDate(a).Equal(civilDate(b))
}

type fakeLocker struct {
	err  error
	keys []redisclient.SlotKey
}

func (l *fakeLocker) WithSlotLock(ctx context.Context, key redisclient.SlotKey, fn func(ctx context.Context) error) error {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return l.err
	}
	return fn(ctx)
}
