package model

import (
	"time"
)

// DateLayout is the calendar date format used across request payloads.
const DateLayout = "2006-01-02"

const hoursPerDay = 24

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DaysSince returns the number of calendar days from then's date to now's
// date, each read in its own location. Daylight-saving shifts do not count.
func DaysSince(now, then time.Time) int {
	return int(civilDay(now).Sub(civilDay(then)).Hours() / hoursPerDay)
}

// civilDay maps t's calendar date to UTC midnight so days are always 24h apart.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
