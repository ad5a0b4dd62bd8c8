package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"courtbooking/internal/db"
	apperrors "courtbooking/internal/errors"
)

type CourtRepository struct {
	DB *sql.DB
}

func NewCourtRepository(conn *sql.DB) *CourtRepository {
	return &CourtRepository{DB: conn}
}

func (r *CourtRepository) GetCourt(ctx context.Context, id string) (*db.Court, error) {
	var c db.Court
	query := `
		SELECT id, court_number, description, sports_id, status, created_at, updated_at
		FROM courts WHERE id = $1`
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.CourtNumber, &c.Description, &c.SportsID, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("court '%s': %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying court: %w", err)
	}
	return &c, nil
}
