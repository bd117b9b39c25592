// Package dashboard assembles the daily view: clock, Hijri date, prayer
// timings with the next one highlighted, and today's task progress.
package dashboard

import (
	"time"

	"ramzan/internal/calendar"
	"ramzan/internal/model"
	"ramzan/internal/prayer"
	"ramzan/internal/task"
)

type TaskView struct {
	ID        model.TaskID `json:"id"`
	Title     string       `json:"title"`
	Type      model.Kind   `json:"type"`
	Completed bool         `json:"completed"`
}

type Snapshot struct {
	Date      string         `json:"date"`
	Weekday   string         `json:"weekday"`
	Time      string         `json:"time"`
	HijriDate string         `json:"hijriDate,omitempty"`
	Times     *prayer.Times  `json:"times"`
	Upcoming  *prayer.Prayer `json:"upcoming"`
	Progress  task.Summary   `json:"progress"`
	Today     []TaskView     `json:"today"`
}

// Build is pure: the caller supplies the task list, the latest prayer fetch
// result and the wall clock. While prayer times are unavailable Times and
// Upcoming stay nil.
func Build(tasks []model.Task, res prayer.Result, now time.Time) Snapshot {
	today := calendar.Of(now)

	s := Snapshot{
		Date:     today.Key(),
		Weekday:  now.Weekday().String(),
		Time:     now.Format("15:04"),
		Progress: task.Progress(tasks, today),
	}

	if times := res.TimesOrNil(); times != nil {
		s.Times = times
		s.HijriDate = res.Day.HijriDate
		if next, ok := prayer.Upcoming(times, now); ok {
			s.Upcoming = &next
		}
	}

	due := task.DueToday(tasks, today)
	s.Today = make([]TaskView, 0, len(due))
	for _, t := range due {
		s.Today = append(s.Today, TaskView{
			ID:        t.ID,
			Title:     t.Title,
			Type:      t.Kind(),
			Completed: task.IsCompleted(t, today),
		})
	}
	return s
}
