package db

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS courts (
	id           TEXT PRIMARY KEY,
	court_number TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT 'No description provided.',
	sports_id    TEXT,
	status       TEXT NOT NULL DEFAULT 'Available' CHECK (status IN ('Available', 'Maintenance')),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS bookings (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	court_id       TEXT NOT NULL REFERENCES courts(id),
	date           TEXT NOT NULL,
	start_time     TEXT NOT NULL,
	duration_hours DOUBLE PRECISION NOT NULL CHECK (duration_hours > 0),
	total_price    DOUBLE PRECISION NOT NULL,
	status         TEXT NOT NULL DEFAULT 'Pending' CHECK (status IN ('Pending', 'Confirmed', 'Cancelled')),
	payment_slip   TEXT,
	verified_by    TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS bookings_slot_idx ON bookings (court_id, date, status);
CREATE INDEX IF NOT EXISTS bookings_user_idx ON bookings (user_id, created_at DESC);
`

// EnsureSchema creates the tables the booking backend reads and writes.
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
