package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/maryuh24/lashesstudio/internal/lifecycle"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	pool DB
}

func NewPgRepository(pool DB) *PgRepository {
	return &PgRepository{pool: pool}
}

const userColumns = `id, name, COALESCE(username, ''), email, user_type, created_at, updated_at`

const bookingColumns = `id, customer_id, lash_artist_id, service_id, booking_date, booking_time,
	status, notes, created_at, updated_at, approved_at, completed_at, cancelled_at`

// Helpers

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.PriceCents, &s.DurationMin, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

func appointmentDest(a *Appointment) []any {
	return []any{
		&a.ID,
		&a.CustomerID,
		&a.ArtistID,
		&a.ServiceID,
		&a.BookingDate,
		&a.BookingTime,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.ApprovedAt,
		&a.CompletedAt,
		&a.CancelledAt,
	}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	if err := row.Scan(appointmentDest(&a)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func scanAppointmentDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail
	dest := append(appointmentDest(&d.Appointment), &d.CustomerName, &d.ArtistName, &d.ServiceName)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &d, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// civilDate drops the clock and zone so DATE parameters never shift a day.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Users

func (r *PgRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *PgRepository) ListArtists(ctx context.Context) ([]User, error) {
	return r.ListUsers(ctx, UserQuery{Role: lifecycle.RoleArtist})
}

func (r *PgRepository) ListUsers(ctx context.Context, q UserQuery) ([]User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE ($1 = '' OR user_type = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR username ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
		ORDER BY name
	`, string(q.Role), q.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateUser(ctx context.Context, u User, passwordHash string) (*User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, username, email, user_type, password_hash, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, now(), now())
		RETURNING `+userColumns,
		u.ID, u.Name, u.Username, u.Email, string(u.Role), passwordHash)

	created, err := scanUser(row)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) UpdateUser(ctx context.Context, u User, passwordHash string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = $2,
		    username = NULLIF($3, ''),
		    email = $4,
		    user_type = $5,
		    password_hash = COALESCE(NULLIF($6, ''), password_hash),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		u.ID, u.Name, u.Username, u.Email, string(u.Role), passwordHash)

	updated, err := scanUser(row)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return ErrUserInUse
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PgRepository) GetPasswordHash(ctx context.Context, id uuid.UUID) (string, error) {
	var hash string
	err := r.pool.QueryRow(ctx, `SELECT password_hash FROM users WHERE id = $1`, id).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return hash, nil
}

func (r *PgRepository) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
	`, id, hash)
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Services

func (r *PgRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, price_cents, duration_min, created_at, updated_at
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) ListServices(ctx context.Context, search string) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, price_cents, duration_min, created_at, updated_at
		FROM services
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
		ORDER BY name
	`, search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateService(ctx context.Context, svc Service) (*Service, error) {
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO services (id, name, description, price_cents, duration_min, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, name, description, price_cents, duration_min, created_at, updated_at
	`, svc.ID, svc.Name, svc.Description, svc.PriceCents, svc.DurationMin)
	return scanService(row)
}

func (r *PgRepository) UpdateService(ctx context.Context, svc Service) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE services
		SET name = $2,
		    description = $3,
		    price_cents = $4,
		    duration_min = $5,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, description, price_cents, duration_min, created_at, updated_at
	`, svc.ID, svc.Name, svc.Description, svc.PriceCents, svc.DurationMin)
	return scanService(row)
}

func (r *PgRepository) DeleteService(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return ErrServiceInUse
		}
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

// Appointments

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, q ListQuery) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.customer_id, b.lash_artist_id, b.service_id, b.booking_date, b.booking_time,
		       b.status, b.notes, b.created_at, b.updated_at, b.approved_at, b.completed_at, b.cancelled_at,
		       c.name, a.name, s.name
		FROM bookings b
		JOIN users c ON c.id = b.customer_id
		JOIN users a ON a.id = b.lash_artist_id
		JOIN services s ON s.id = b.service_id
		WHERE ($1::uuid IS NULL OR b.customer_id = $1)
		  AND ($2::uuid IS NULL OR b.lash_artist_id = $2)
		  AND ($3 = '' OR b.status = $3)
		  AND ($4 = '' OR c.name ILIKE '%' || $4 || '%' OR a.name ILIKE '%' || $4 || '%' OR s.name ILIKE '%' || $4 || '%')
		ORDER BY b.booking_date DESC, b.booking_time DESC
		LIMIT $5 OFFSET $6
	`, q.CustomerID, q.ArtistID, string(q.Status), q.Search, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []AppointmentDetail{}
	for rows.Next() {
		d, err := scanAppointmentDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListTakenStarts(ctx context.Context, artistID uuid.UUID, date time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT booking_time
		FROM bookings
		WHERE lash_artist_id = $1
		  AND booking_date = $2
		  AND status IN ('pending', 'confirmed')
	`, artistID, civilDate(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taken := []string{}
	for rows.Next() {
		var start string
		if err := rows.Scan(&start); err != nil {
			return nil, err
		}
		taken = append(taken, start)
	}
	return taken, rows.Err()
}

func (r *PgRepository) CreatePendingAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (id, customer_id, lash_artist_id, service_id, booking_date, booking_time,
		                      status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, now(), now())
		RETURNING `+bookingColumns,
		a.ID, a.CustomerID, a.ArtistID, a.ServiceID, civilDate(a.BookingDate), a.BookingTime, a.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to lifecycle.Status, at time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2::text,
		    updated_at = $4,
		    approved_at = CASE WHEN $2::text = 'confirmed' THEN $4::timestamptz ELSE approved_at END,
		    completed_at = CASE WHEN $2::text = 'completed' THEN $4::timestamptz ELSE completed_at END,
		    cancelled_at = CASE WHEN $2::text = 'cancelled' THEN $4::timestamptz ELSE cancelled_at END
		WHERE id = $1
		  AND status = $3
		RETURNING `+bookingColumns,
		id, string(to), string(from), at)

	return scanAppointment(row)
}

func (r *PgRepository) FindPendingOnOrBefore(ctx context.Context, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = 'pending'
		  AND booking_date <= $1
	`, civilDate(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CountStats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := r.pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM bookings),
		       (SELECT count(*) FROM bookings WHERE status = 'pending'),
		       (SELECT count(*) FROM services),
		       (SELECT count(*) FROM users)
	`).Scan(&st.TotalAppointments, &st.PendingAppointments, &st.TotalServices, &st.TotalUsers)
	if err != nil {
		return nil, fmt.Errorf("count stats: %w", err)
	}
	return &st, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
