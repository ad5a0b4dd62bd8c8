package entities

// BusyInterval is an active booking expressed as a half-open minute range.
type BusyInterval struct {
	BookingID    string `json:"booking_id"`
	Status       string `json:"status"`
	StartMinutes int    `json:"start_minutes"`
	EndMinutes   int    `json:"end_minutes"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

type AvailabilityResponse struct {
	CourtID string         `json:"court_id"`
	Date    string         `json:"date"`
	Busy    []BusyInterval `json:"busy"`
}
