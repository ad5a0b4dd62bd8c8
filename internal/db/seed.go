package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const seedCourtQuery = `
INSERT INTO courts (id, court_number, status)
VALUES ($1, $1, $2)
ON CONFLICT (id) DO NOTHING`

// SeedCourts inserts each id as an Available court unless it already exists.
// Existing courts, including ones under maintenance, are left untouched.
// It returns how many courts were created.
func SeedCourts(ctx context.Context, conn Execer, ids []string) (int64, error) {
	var created int64
	for _, id := range ids {
		res, err := conn.ExecContext(ctx, seedCourtQuery, id, CourtAvailable)
		if err != nil {
			return created, fmt.Errorf("seed court %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			created += n
		}
	}
	return created, nil
}
