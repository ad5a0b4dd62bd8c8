package entities

// StaffNotificationData feeds the "new booking awaiting verification" message.
type StaffNotificationData struct {
	BookingID  string
	CourtID    string
	Date       string
	StartTime  string
	EndTime    string
	UserID     string
	TotalPrice float64
	HasSlip    bool
}
