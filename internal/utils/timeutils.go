package utils

import (
	"fmt"
	"time"
)

// ParseDate returns the calendar date from a YYYY-MM-DD string in UTC.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date: %w", err)
	}
	return t, nil
}

// TruncateToDay strips the clock from a timestamp, keeping the UTC calendar date.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
