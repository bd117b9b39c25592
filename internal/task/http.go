package task

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ramzan/internal/calendar"
	"ramzan/internal/model"
)

type Handler struct {
	repo  *Repo
	clock calendar.Clock
}

func NewHandler(repo *Repo, clock calendar.Clock) *Handler {
	if clock == nil {
		clock = calendar.RealClock{}
	}
	return &Handler{repo: repo, clock: clock}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(out)
}

// dateParam reads ?date=YYYY-MM-DD, defaulting to today.
func (h *Handler) dateParam(r *http.Request) (calendar.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return calendar.Today(h.clock), nil
	}
	return calendar.ParseKey(raw)
}

type createTaskInput struct {
	Title       string      `json:"title"`
	Type        model.Kind  `json:"type"`
	SetDate     bool        `json:"setDate"`
	StartDate   string      `json:"startDate"`
	SetDuration bool        `json:"setDuration"`
	Duration    json.Number `json:"duration"`
}

// DayItem is one row of the calendar list for a date.
type DayItem struct {
	Task      model.Task `json:"task"`
	Completed bool       `json:"completed"`
	Editable  bool       `json:"editable"`
}

type CalendarView struct {
	Date     string         `json:"date"`
	Today    string         `json:"today"`
	Editable bool           `json:"editable"`
	Items    []DayItem      `json:"items"`
	Density  map[string]int `json:"density"`
}

// BuildCalendarView lists the tasks active on d with their flags, plus the
// task-dot counts for d's month.
func BuildCalendarView(tasks []model.Task, d, today calendar.Date) CalendarView {
	editable := IsEditable(d, today)
	active := ForDate(tasks, d)
	items := make([]DayItem, 0, len(active))
	for _, t := range active {
		items = append(items, DayItem{
			Task:      t,
			Completed: IsCompleted(t, d),
			Editable:  editable,
		})
	}
	return CalendarView{
		Date:     d.Key(),
		Today:    today.Key(),
		Editable: editable,
		Items:    items,
		Density:  MonthDensity(tasks, d.Year(), d.Month(), today),
	}
}

// /api/tasks  (collection)
func (h *Handler) TasksRoot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.repo.List(ctx))
		return

	case http.MethodPost:
		var in createTaskInput
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}

		draft := Draft{
			Title:       in.Title,
			Type:        in.Type,
			SetDate:     in.SetDate,
			StartDate:   in.StartDate,
			SetDuration: in.SetDuration,
			Duration:    in.Duration.String(),
		}
		t, err := draft.Build(NewID())
		var derr *DraftError
		if errors.As(err, &derr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  ErrInvalidDraft.Error(),
				"fields": derr.Fields,
			})
			return
		}
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}

		t, err = h.repo.Add(ctx, t)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, t)
		return

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
}

// /api/tasks/{id}
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tail := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	tail = strings.Trim(tail, "/")
	if tail == "" {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}

	parts := strings.Split(tail, "/")
	id := model.TaskID(parts[0])

	// /api/tasks/{id}
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			t, err := h.repo.Get(ctx, id)
			if errors.Is(err, ErrNotFound) {
				writeErr(w, http.StatusNotFound, "not found")
				return
			}
			writeJSON(w, http.StatusOK, t)
			return

		case http.MethodDelete:
			// Deleting an unknown id is a no-op, not an error.
			if err := h.repo.Remove(ctx, id); err != nil {
				writeErr(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return

		default:
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
	}

	// /api/tasks/{id}/toggle
	if len(parts) == 2 && parts[1] == "toggle" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		d, err := h.dateParam(r)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}

		t, err := h.repo.Toggle(ctx, id, d, calendar.Today(h.clock))
		switch {
		case errors.Is(err, ErrNotFound):
			writeErr(w, http.StatusNotFound, "not found")
			return
		case errors.Is(err, ErrNotEditable):
			// Future days are read-only; report the unchanged state.
			cur, gerr := h.repo.Get(ctx, id)
			if gerr != nil {
				writeErr(w, http.StatusNotFound, "not found")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"ok":        false,
				"reason":    err.Error(),
				"task":      cur,
				"completed": IsCompleted(cur, d),
			})
			return
		case err != nil:
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"ok":        true,
			"task":      t,
			"completed": IsCompleted(t, d),
		})
		return
	}

	// /api/tasks/{id}/calendar.ics
	if len(parts) == 2 && parts[1] == "calendar.ics" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		t, err := h.repo.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			writeErr(w, http.StatusNotFound, "not found")
			return
		}
		now := h.clock.Now()
		ics, err := BuildTaskCalendarICS(t, calendar.Of(now), now)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="task-`+string(t.ID)+`.ics"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(ics))
		return
	}

	writeErr(w, http.StatusNotFound, "not found")
}

// /api/calendar?date=YYYY-MM-DD
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	d, err := h.dateParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, BuildCalendarView(h.repo.List(r.Context()), d, calendar.Today(h.clock)))
}
