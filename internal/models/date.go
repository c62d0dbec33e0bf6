package models

import (
	"fmt"
	"time"
)

// Calendar layouts used for persisted dates and month buckets.
const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// ParseDate validates a YYYY-MM-DD calendar date and returns it unchanged.
func ParseDate(s string) (string, error) {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return s, nil
}

// ParseMonth validates a YYYY-MM month bucket and returns it unchanged.
func ParseMonth(s string) (string, error) {
	if _, err := time.Parse(MonthLayout, s); err != nil {
		return "", fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return s, nil
}

// MonthOf truncates a YYYY-MM-DD date to its YYYY-MM bucket.
func MonthOf(date string) string {
	if len(date) < len(MonthLayout) {
		return date
	}
	return date[:len(MonthLayout)]
}

// Today returns the current local calendar date.
func Today() string {
	return time.Now().Format(DateLayout)
}

// CurrentMonth returns the current local month bucket.
func CurrentMonth() string {
	return time.Now().Format(MonthLayout)
}
