package task

import (
	"ramzan/internal/calendar"
	"ramzan/internal/model"
)

// Summary is today's completion ratio. Percent is exact; rounding is left
// to whoever displays it.
type Summary struct {
	Due       int     `json:"due"`
	Completed int     `json:"completed"`
	Percent   float64 `json:"percent"`
}

func Progress(tasks []model.Task, today calendar.Date) Summary {
	due := DueToday(tasks, today)
	s := Summary{Due: len(due)}
	for _, t := range due {
		if IsCompleted(t, today) {
			s.Completed++
		}
	}
	if s.Due > 0 {
		s.Percent = 100 * float64(s.Completed) / float64(s.Due)
	}
	return s
}
