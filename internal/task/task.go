// Package task holds the date rules of the tracker: which tasks apply to a
// calendar day, per-day completion flags, today's progress, and the store
// that owns the task list.
package task

import (
	"time"

	"ramzan/internal/calendar"
	"ramzan/internal/model"
)

// ActiveOn reports whether t should be shown (and is checkable) on d.
// Everyday tasks match every date; regular tasks match the closed window
// [start, start+duration-1]. A regular task without a start date matches
// nothing.
func ActiveOn(t model.Task, d calendar.Date) bool {
	switch s := t.Schedule.(type) {
	case model.Everyday:
		return true
	case model.Regular:
		return s.Window != nil && s.Window.Contains(d)
	default:
		return false
	}
}

// ActiveToday is the narrower rule used for progress: a regular task counts
// only on its start day, whatever its duration.
func ActiveToday(t model.Task, today calendar.Date) bool {
	switch s := t.Schedule.(type) {
	case model.Everyday:
		return true
	case model.Regular:
		return s.Window != nil && s.Window.Start == today
	default:
		return false
	}
}

// ForDate keeps the tasks active on d, in list order.
func ForDate(tasks []model.Task, d calendar.Date) []model.Task {
	return filter(tasks, func(t model.Task) bool { return ActiveOn(t, d) })
}

// DueToday keeps the tasks that count toward today's progress.
func DueToday(tasks []model.Task, today calendar.Date) []model.Task {
	return filter(tasks, func(t model.Task) bool { return ActiveToday(t, today) })
}

// RegularOn keeps only the windowed tasks active on d.
func RegularOn(tasks []model.Task, d calendar.Date) []model.Task {
	return filter(tasks, func(t model.Task) bool {
		return t.Kind() == model.KindRegular && ActiveOn(t, d)
	})
}

// Density is the calendar dot count for d: regular tasks active that day,
// shown for today and later only.
func Density(tasks []model.Task, d, today calendar.Date) int {
	if d.Before(today) {
		return 0
	}
	return len(RegularOn(tasks, d))
}

// MonthDensity maps date-keys of a month to their non-zero Density.
func MonthDensity(tasks []model.Task, year int, month time.Month, today calendar.Date) map[string]int {
	out := map[string]int{}
	for _, d := range calendar.DaysInMonth(year, month) {
		if n := Density(tasks, d, today); n > 0 {
			out[d.Key()] = n
		}
	}
	return out
}

func filter(tasks []model.Task, keep func(model.Task) bool) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
