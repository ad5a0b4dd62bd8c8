package service

import (
	"fmt"
	"math"

	"courtbooking/internal/db"
	apperrors "courtbooking/internal/errors"
	"courtbooking/internal/utils"
)

// Interval is a half-open range of minutes since midnight: [Start, End).
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether a and b intersect. Back-to-back intervals do not.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && a.End > b.Start
}

// CandidateInterval builds the interval a booking of durationHours starting at
// start would occupy.
func CandidateInterval(start int, durationHours float64) Interval {
	return Interval{Start: start, End: start + durationMinutes(durationHours)}
}

// ReservationInterval normalizes a stored reservation.
func ReservationInterval(res db.Reservation) (Interval, error) {
	start, err := utils.ToMinutes(res.StartTime)
	if err != nil {
		return Interval{}, err
	}
	return CandidateInterval(start, res.DurationHours), nil
}

// FindConflict returns the first active reservation overlapping candidate, or nil.
// A stored reservation with an unreadable start time is reported as a persistence
// failure rather than skipped.
func FindConflict(existing []db.Reservation, candidate Interval) (*db.Reservation, error) {
	for i := range existing {
		res := existing[i]
		if !res.IsActive() {
			continue
		}
		booked, err := ReservationInterval(res)
		if err != nil {
			return nil, fmt.Errorf("stored booking %s: %v: %w", res.ID, err, apperrors.ErrPersistence)
		}
		if Overlaps(candidate, booked) {
			return &res, nil
		}
	}
	return nil, nil
}

func durationMinutes(hours float64) int {
	return int(math.Round(hours * 60))
}
