package entities

// AdmissionRequest is a booking attempt as received from a client. Pointer
// fields distinguish "absent" from a zero value.
type AdmissionRequest struct {
	CourtID       string   `json:"court_id"`
	Date          string   `json:"date"`
	StartTime     string   `json:"start_time"`
	DurationHours *float64 `json:"duration_hours"`
	UserID        string   `json:"user_id"`
	TotalPrice    *float64 `json:"total_price"`
	PaymentSlip   *string  `json:"payment_slip,omitempty"`
}

// StatusUpdateRequest moves a booking out of Pending.
type StatusUpdateRequest struct {
	Status  string `json:"status"`
	StaffID string `json:"staff_id"`
}
