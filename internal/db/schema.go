package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent; EnsureSchema runs it on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	username      TEXT UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	user_type     TEXT NOT NULL DEFAULT 'user' CHECK (user_type IN ('user', 'artist', 'admin')),
	password_hash TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE users ADD COLUMN IF NOT EXISTS username TEXT UNIQUE;
ALTER TABLE users ADD COLUMN IF NOT EXISTS password_hash TEXT NOT NULL DEFAULT '';

CREATE TABLE IF NOT EXISTS services (
	id           UUID PRIMARY KEY,
	name         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	price_cents  INTEGER NOT NULL CHECK (price_cents >= 0),
	duration_min INTEGER NOT NULL CHECK (duration_min > 0),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bookings (
	id             UUID PRIMARY KEY,
	customer_id    UUID NOT NULL REFERENCES users(id),
	lash_artist_id UUID NOT NULL REFERENCES users(id),
	service_id     UUID NOT NULL REFERENCES services(id),
	booking_date   DATE NOT NULL,
	booking_time   TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'pending',
	notes          TEXT NOT NULL DEFAULT '',
	approved_at    TIMESTAMPTZ,
	completed_at   TIMESTAMPTZ,
	cancelled_at   TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS bookings_active_slot
	ON bookings (lash_artist_id, booking_date, booking_time)
	WHERE status IN ('pending', 'confirmed');

CREATE INDEX IF NOT EXISTS bookings_status_date ON bookings (status, booking_date);

CREATE TABLE IF NOT EXISTS event_logs (
	id             BIGSERIAL PRIMARY KEY,
	event_type     TEXT NOT NULL,
	appointment_id UUID,
	payload        JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
