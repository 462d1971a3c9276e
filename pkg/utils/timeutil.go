// Package utils holds small date helpers shared by the data sources and the
// analysis core. All dates are calendar days expressed as UTC midnight.
package utils

import (
	"time"
)

// DateLayout is the ISO calendar-date format used in flags, config and reports.
const DateLayout = "2006-01-02"

// DateOnly truncates t to midnight UTC of its own calendar date.
// The wall-clock date in t's location is preserved.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date.
func Today() time.Time {
	return DateOnly(time.Now())
}

// ParseDate parses a "2006-01-02" date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate formats t as "2006-01-02".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// IsBusinessDay reports whether t falls on Monday through Friday.
// Exchange holidays are not modelled.
func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// BusinessDays returns every weekday in [start, end], ascending.
func BusinessDays(start, end time.Time) []time.Time {
	start, end = DateOnly(start), DateOnly(end)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// PrevBusinessDay returns the weekday strictly before from.
func PrevBusinessDay(from time.Time) time.Time {
	prev := DateOnly(from).AddDate(0, 0, -1)
	for !IsBusinessDay(prev) {
		prev = prev.AddDate(0, 0, -1)
	}
	return prev
}

// LookbackRange returns [end-days, end] as calendar dates. A zero end means today.
func LookbackRange(end time.Time, days int) (time.Time, time.Time) {
	if end.IsZero() {
		end = Today()
	}
	end = DateOnly(end)
	return end.AddDate(0, 0, -days), end
}

// YearsBetween returns each calendar year touched by [start, end].
func YearsBetween(start, end time.Time) []int {
	var years []int
	for y := start.Year(); y <= end.Year(); y++ {
		years = append(years, y)
	}
	return years
}
