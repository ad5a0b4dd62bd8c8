package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"courtbooking/internal/db"
	apperrors "courtbooking/internal/errors"
)

const bookingColumns = `id, user_id, court_id, date, start_time, duration_hours, total_price,
	status, payment_slip, verified_by, created_at, updated_at`

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(conn *sql.DB) *BookingRepository {
	return &BookingRepository{DB: conn}
}

// ActiveForSlot returns the Pending and Confirmed bookings of a court on a date.
func (r *BookingRepository) ActiveForSlot(ctx context.Context, courtID, date string) ([]db.Reservation, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE court_id = $1 AND date = $2 AND status = ANY($3)
		ORDER BY start_time`
	return r.list(ctx, query, courtID, date, pq.Array(db.ActiveStatuses))
}

func (r *BookingRepository) Create(ctx context.Context, res *db.Reservation) error {
	query := `
		INSERT INTO bookings
		(id, user_id, court_id, date, start_time, duration_hours, total_price, status, payment_slip, verified_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		res.ID,
		res.UserID,
		res.CourtID,
		res.Date,
		res.StartTime,
		res.DurationHours,
		res.TotalPrice,
		res.Status,
		res.PaymentSlip,
		res.VerifiedBy,
		res.CreatedAt,
		res.UpdatedAt,
	).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error inserting booking %s: %w", res.ID, err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*db.Reservation, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	res, err := scanBooking(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking '%s': %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying booking: %w", err)
	}
	return res, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]db.Reservation, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *BookingRepository) ListPending(ctx context.Context) ([]db.Reservation, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, db.StatusPending)
}

// UpdateStatusIf moves a booking from one status to another in a single
// conditional UPDATE; a booking no longer in from reports ErrNotFound.
func (r *BookingRepository) UpdateStatusIf(ctx context.Context, id, from, to string, verifiedBy *string) (*db.Reservation, error) {
	query := `
		UPDATE bookings
		SET status = $3, verified_by = COALESCE($4, verified_by), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns
	res, err := scanBooking(r.DB.QueryRowContext(ctx, query, id, from, to, verifiedBy))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking '%s' in status %s: %w", id, from, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("error updating booking status: %w", err)
	}
	return res, nil
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...interface{}) ([]db.Reservation, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings: %w", err)
	}
	defer rows.Close()

	reservations := []db.Reservation{}
	for rows.Next() {
		res, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		reservations = append(reservations, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating booking rows: %w", err)
	}
	return reservations, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*db.Reservation, error) {
	var res db.Reservation
	err := row.Scan(
		&res.ID, &res.UserID, &res.CourtID, &res.Date, &res.StartTime, &res.DurationHours, &res.TotalPrice,
		&res.Status, &res.PaymentSlip, &res.VerifiedBy, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
