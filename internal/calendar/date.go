package calendar

import (
	"fmt"
	"strings"
	"time"
)

// KeyLayout is the canonical date-key form, year-month-day.
const KeyLayout = "2006-01-02"

// Date is a calendar day with no time-of-day or zone. The zero value is
// IsZero and sorts before every real date.
type Date struct {
	year  int
	month time.Month
	day   int
}

// Of strips the time-of-day from t in t's own location.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// New normalizes overflowing fields the way time.Date does, so
// New(2024, 2, 30) is March 1st.
func New(year int, month time.Month, day int) Date {
	return Of(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseKey parses a yyyy-MM-dd date-key.
func ParseKey(s string) (Date, error) {
	t, err := time.Parse(KeyLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return Of(t), nil
}

// ParseInstant accepts an ISO-8601 date-time (as stored by the browser
// app) or a bare date-key. Date-times are converted to loc before the
// time-of-day is dropped, so a midnight stored in UTC comes back as the
// local day it was created for.
func ParseInstant(s string, loc *time.Location) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.Local
	}
	if len(s) == len(KeyLayout) {
		return ParseKey(s)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse instant %q: %w", s, err)
	}
	return Of(t.In(loc)), nil
}

func (d Date) Year() int             { return d.year }
func (d Date) Month() time.Month     { return d.month }
func (d Date) Day() int              { return d.day }
func (d Date) IsZero() bool          { return d == Date{} }
func (d Date) Weekday() time.Weekday { return d.Midnight(time.UTC).Weekday() }

// Key returns the canonical date-key. It does not depend on locale or zone.
func (d Date) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

func (d Date) String() string { return d.Key() }

// Midnight is the first instant of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

// AddDays moves by whole calendar days; DST never shifts the result.
func (d Date) AddDays(n int) Date {
	return Of(d.Midnight(time.UTC).AddDate(0, 0, n))
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.year != o.year:
		return cmpInt(d.year, o.year)
	case d.month != o.month:
		return cmpInt(int(d.month), int(o.month))
	default:
		return cmpInt(d.day, o.day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// Between reports whether d lies in the closed interval [start, end].
// An interval whose end precedes its start contains nothing.
func (d Date) Between(start, end Date) bool {
	if end.Before(start) {
		return false
	}
	return !d.Before(start) && !d.After(end)
}

// DaysInMonth returns every day of the given month in order.
func DaysInMonth(year int, month time.Month) []Date {
	first := New(year, month, 1)
	out := make([]Date, 0, 31)
	for d := first; d.month == first.month; d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
