// Package testutil provides in-memory stand-ins for the booking stores.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"courtbooking/internal/db"
	apperrors "courtbooking/internal/errors"
)

// MemoryStore is an in-memory booking store. ReadDelay widens the window between
// the conflict read and the insert so races surface in tests.
type MemoryStore struct {
	mu        sync.Mutex
	bookings  map[string]db.Reservation
	ReadDelay time.Duration
	ReadErr   error
	CreateErr error
}

func NewMemoryStore(seed ...db.Reservation) *MemoryStore {
	s := &MemoryStore{bookings: make(map[string]db.Reservation)}
	for _, res := range seed {
		s.bookings[res.ID] = res
	}
	return s
}

func (s *MemoryStore) ActiveForSlot(_ context.Context, courtID, date string) ([]db.Reservation, error) {
	s.mu.Lock()
	if s.ReadErr != nil {
		s.mu.Unlock()
		return nil, s.ReadErr
	}
	var out []db.Reservation
	for _, res := range s.bookings {
		if res.CourtID == courtID && res.Date == date && res.IsActive() {
			out = append(out, res)
		}
	}
	s.mu.Unlock()

	if s.ReadDelay > 0 {
		time.Sleep(s.ReadDelay)
	}
	return out, nil
}

func (s *MemoryStore) Create(ctx context.Context, res *db.Reservation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if _, dup := s.bookings[res.ID]; dup {
		return fmt.Errorf("duplicate id %s", res.ID)
	}
	s.bookings[res.ID] = *res
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (*db.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, apperrors.ErrNotFound)
	}
	return &res, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]db.Reservation, error) {
	return s.filter(func(r db.Reservation) bool { return r.UserID == userID }, true), nil
}

func (s *MemoryStore) ListPending(_ context.Context) ([]db.Reservation, error) {
	return s.filter(func(r db.Reservation) bool { return r.Status == db.StatusPending }, false), nil
}

func (s *MemoryStore) UpdateStatusIf(_ context.Context, id, from, to string, verifiedBy *string) (*db.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.bookings[id]
	if !ok || res.Status != from {
		return nil, fmt.Errorf("booking %s in %s: %w", id, from, apperrors.ErrNotFound)
	}
	res.Status = to
	if verifiedBy != nil {
		res.VerifiedBy = verifiedBy
	}
	s.bookings[id] = res
	return &res, nil
}

func (s *MemoryStore) filter(keep func(db.Reservation) bool, newestFirst bool) []db.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []db.Reservation{}
	for _, res := range s.bookings {
		if keep(res) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) CountStatus(courtID, date, status string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, res := range s.bookings {
		if res.CourtID == courtID && res.Date == date && res.Status == status {
			n++
		}
	}
	return n
}

// Courts is a fixed court catalog.
type Courts map[string]db.Court

func (c Courts) GetCourt(_ context.Context, id string) (*db.Court, error) {
	court, ok := c[id]
	if !ok {
		return nil, fmt.Errorf("court %s: %w", id, apperrors.ErrNotFound)
	}
	return &court, nil
}

// DefaultCourts has two bookable courts and one under maintenance.
func DefaultCourts() Courts {
	return Courts{
		"C1": {ID: "C1", CourtNumber: "1", Status: db.CourtAvailable},
		"C2": {ID: "C2", CourtNumber: "2", Status: db.CourtAvailable},
		"C9": {ID: "C9", CourtNumber: "9", Status: db.CourtMaintenance},
	}
}

// RecordingNotifier remembers every booking it is told about.
type RecordingNotifier struct {
	mu   sync.Mutex
	Seen []db.Reservation
}

func (n *RecordingNotifier) NotifyNewBooking(res db.Reservation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Seen = append(n.Seen, res)
}

// Booking builds a stored reservation.
func Booking(id, courtID, date, start string, hours float64, status string) db.Reservation {
	return db.Reservation{
		ID:            id,
		UserID:        "U-" + id,
		CourtID:       courtID,
		Date:          date,
		StartTime:     start,
		DurationHours: hours,
		TotalPrice:    25 * hours,
		Status:        status,
		CreatedAt:     time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC),
	}
}
