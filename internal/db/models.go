package db

import "time"

// Booking statuses.
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
)

// Court statuses.
const (
	CourtAvailable   = "Available"
	CourtMaintenance = "Maintenance"
)

// ActiveStatuses hold a slot. Cancelled bookings never do.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

type Court struct {
	ID          string    `json:"id"`
	CourtNumber string    `json:"court_number"`
	Description string    `json:"description"`
	SportsID    *string   `json:"sports_id,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Reservation struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	CourtID       string    `json:"court_id"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	DurationHours float64   `json:"duration_hours"`
	TotalPrice    float64   `json:"total_price"`
	Status        string    `json:"status"`
	PaymentSlip   *string   `json:"payment_slip"`
	VerifiedBy    *string   `json:"verified_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsActive reports whether the reservation currently holds its slot.
func (r Reservation) IsActive() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}
