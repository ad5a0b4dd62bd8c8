package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "courtbooking/internal/errors"
)

const (
	// MinutesPerDay bounds every booking interval: a slot never crosses midnight.
	MinutesPerDay = 24 * 60

	// DateLayout is the only accepted booking date format.
	DateLayout = "2006-01-02"
)

// ToMinutes converts a 12-hour clock string such as "1:15 PM" into minutes since
// midnight, in [0, 1439].
func ToMinutes(s string) (int, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%q: expected \"H:MM AM|PM\": %w", s, apperrors.ErrInvalidTimeFormat)
	}
	clock, meridiem := parts[0], strings.ToUpper(parts[1])
	if meridiem != "AM" && meridiem != "PM" {
		return 0, fmt.Errorf("%q: unknown meridiem %q: %w", s, parts[1], apperrors.ErrInvalidTimeFormat)
	}

	hm := strings.Split(clock, ":")
	if len(hm) != 2 || len(hm[0]) < 1 || len(hm[0]) > 2 || len(hm[1]) != 2 {
		return 0, fmt.Errorf("%q: expected \"H:MM\": %w", s, apperrors.ErrInvalidTimeFormat)
	}
	hours, err := parseDigits(hm[0])
	if err != nil || hours < 1 || hours > 12 {
		return 0, fmt.Errorf("%q: hour must be 1..12: %w", s, apperrors.ErrInvalidTimeFormat)
	}
	minutes, err := parseDigits(hm[1])
	if err != nil || minutes > 59 {
		return 0, fmt.Errorf("%q: minute must be 00..59: %w", s, apperrors.ErrInvalidTimeFormat)
	}

	if hours == 12 {
		hours = 0
	}
	if meridiem == "PM" {
		hours += 12
	}
	return hours*60 + minutes, nil
}

// FormatMinutes renders minutes since midnight back as a 12-hour clock string.
// 1440 renders as "12:00 AM" (the following midnight).
func FormatMinutes(m int) string {
	m = ((m % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	hours, minutes := m/60, m%60
	meridiem := "AM"
	if hours >= 12 {
		meridiem = "PM"
	}
	hours %= 12
	if hours == 0 {
		hours = 12
	}
	return fmt.Sprintf("%d:%02d %s", hours, minutes, meridiem)
}

// ValidateDate checks that s is a real calendar date in YYYY-MM-DD form, so that
// "2024-6-1" can never silently miss "2024-06-01".
func ValidateDate(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("date %q must be YYYY-MM-DD: %w", s, apperrors.ErrInvalidField)
	}
	return nil
}

// parseDigits rejects the signs and spaces strconv.Atoi would accept.
func parseDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit %q", r)
		}
	}
	return strconv.Atoi(s)
}
