package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"courtbooking/internal/db"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(conn *sql.DB) *JobRepository {
	return &JobRepository{DB: conn}
}

// StalePendingIDs finds Pending bookings without a payment slip created before
// the cutoff.
func (r *JobRepository) StalePendingIDs(ctx context.Context, createdBefore time.Time) ([]string, error) {
	query := `SELECT id FROM bookings WHERE status = $1 AND payment_slip IS NULL AND created_at < $2`
	rows, err := r.DB.QueryContext(ctx, query, db.StatusPending, createdBefore)
	if err != nil {
		return nil, fmt.Errorf("error querying stale pending bookings: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning booking ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// CancelPending cancels the given bookings that are still Pending. Bookings
// confirmed since they were selected are left alone.
func (r *JobRepository) CancelPending(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = ANY($2) AND status = $3`
	result, err := r.DB.ExecContext(ctx, query, db.StatusCancelled, pq.Array(ids), db.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("error cancelling pending bookings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Warn().Err(err).Msg("Could not get rows affected")
		return 0, nil
	}
	return rowsAffected, nil
}
