package task

import (
	"ramzan/internal/calendar"
	"ramzan/internal/model"
)

// DateKey is the completion map key for d.
func DateKey(d calendar.Date) string {
	return d.Key()
}

// IsCompleted reads the flag for d; a missing key means not done.
func IsCompleted(t model.Task, d calendar.Date) bool {
	return t.CompletedDates[DateKey(d)]
}

// Toggle flips the flag for d and returns the updated copy. The entry is
// kept as false after an un-toggle rather than deleted.
func Toggle(t model.Task, d calendar.Date) model.Task {
	out := t.Clone()
	key := DateKey(d)
	out.CompletedDates[key] = !out.CompletedDates[key]
	return out
}

// IsEditable gates toggling: only today and past days may change.
func IsEditable(d, today calendar.Date) bool {
	return !d.After(today)
}
