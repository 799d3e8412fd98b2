package model

import "time"

// DateLayout is the calendar date form (YYYY-MM-DD) used throughout the
// workspace documents.
const DateLayout = "2006-01-02"

// TimeOfDayLayout is the clock time form (HH:MM) used for task due times.
const TimeOfDayLayout = "15:04"

// IsValidDate reports whether s is a well-formed calendar date.
func IsValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsValidTimeOfDay reports whether s is a well-formed clock time.
// The hour must be zero-padded; time.Parse alone would accept "9:30".
func IsValidTimeOfDay(s string) bool {
	if len(s) != len(TimeOfDayLayout) {
		return false
	}
	_, err := time.Parse(TimeOfDayLayout, s)
	return err == nil
}

// Today returns the current calendar date in the given location, or in the
// system location when loc is nil.
func Today(loc *time.Location) string {
	now := time.Now()
	if loc != nil {
		now = now.In(loc)
	}
	return now.Format(DateLayout)
}
