package task

import (
	"ramzan/internal/calendar"
	"ramzan/internal/model"
)

func intPtr(n int) *int { return &n }

func day(d int) calendar.Date { return calendar.New(2024, 3, d) }

func everyday(id string) model.Task {
	return model.Task{ID: model.TaskID(id), Title: id, Schedule: model.Everyday{}, CompletedDates: map[string]bool{}}
}

func regular(id string, start calendar.Date, duration *int) model.Task {
	return model.Task{
		ID:             model.TaskID(id),
		Title:          id,
		Schedule:       model.Regular{Window: &model.Window{Start: start, Duration: duration}},
		CompletedDates: map[string]bool{},
	}
}

func undated(id string) model.Task {
	return model.Task{ID: model.TaskID(id), Title: id, Schedule: model.Regular{}, CompletedDates: map[string]bool{}}
}

func ids(tasks []model.Task) []model.TaskID {
	out := make([]model.TaskID, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}
