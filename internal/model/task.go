package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"ramzan/internal/calendar"
)

type TaskID string

// Kind is the wire tag of a task's schedule.
type Kind string

const (
	KindEveryday Kind = "everyday"
	KindRegular  Kind = "regular"
)

// startDateLayout mirrors what the browser app wrote: local midnight as a
// UTC instant with millisecond precision.
const startDateLayout = "2006-01-02T15:04:05.000Z07:00"

// Schedule is implemented only by Everyday and Regular.
type Schedule interface {
	Kind() Kind
	isSchedule()
}

// Everyday recurs on every calendar date.
type Everyday struct{}

func (Everyday) Kind() Kind  { return KindEveryday }
func (Everyday) isSchedule() {}

// Regular is bound to an optional window. A nil Window means the task
// was added without a date and shows up only in the unfiltered list.
type Regular struct {
	Window *Window
}

func (Regular) Kind() Kind  { return KindRegular }
func (Regular) isSchedule() {}

// Window is a run of whole days starting at Start. A nil Duration means a
// single day.
type Window struct {
	Start    calendar.Date
	Duration *int
}

// Days is the window length; it can be non-positive only for corrupt
// persisted data.
func (w Window) Days() int {
	if w.Duration == nil {
		return 1
	}
	return *w.Duration
}

// End is the last day of the window (inclusive).
func (w Window) End() calendar.Date {
	return w.Start.AddDays(w.Days() - 1)
}

func (w Window) Contains(d calendar.Date) bool {
	if w.Days() <= 0 {
		return false
	}
	return d.Between(w.Start, w.End())
}

type Task struct {
	ID             TaskID
	Title          string
	Schedule       Schedule
	CompletedDates map[string]bool
}

// Kind defaults to regular for a task built without a schedule.
func (t Task) Kind() Kind {
	if t.Schedule == nil {
		return KindRegular
	}
	return t.Schedule.Kind()
}

// Window returns the regular window, if any.
func (t Task) Window() (Window, bool) {
	r, ok := t.Schedule.(Regular)
	if !ok || r.Window == nil {
		return Window{}, false
	}
	return *r.Window, true
}

// Clone copies the completion map so the result can be mutated freely.
func (t Task) Clone() Task {
	out := t
	out.CompletedDates = make(map[string]bool, len(t.CompletedDates))
	for k, v := range t.CompletedDates {
		out.CompletedDates[k] = v
	}
	if r, ok := t.Schedule.(Regular); ok && r.Window != nil {
		w := *r.Window
		if w.Duration != nil {
			n := *w.Duration
			w.Duration = &n
		}
		out.Schedule = Regular{Window: &w}
	}
	return out
}

type wireTask struct {
	ID             TaskID          `json:"id"`
	Title          string          `json:"title"`
	Type           Kind            `json:"type"`
	StartDate      *string         `json:"startDate,omitempty"`
	Duration       *int            `json:"duration,omitempty"`
	CompletedDates map[string]bool `json:"completedDates"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	w := wireTask{
		ID:             t.ID,
		Title:          t.Title,
		Type:           t.Kind(),
		CompletedDates: t.CompletedDates,
	}
	if w.CompletedDates == nil {
		w.CompletedDates = map[string]bool{}
	}
	if win, ok := t.Window(); ok {
		s := win.Start.Midnight(time.Local).UTC().Format(startDateLayout)
		w.StartDate = &s
		w.Duration = win.Duration
	}
	return json.Marshal(w)
}

// UnmarshalJSON trusts the stored shape but reads it field by field, so a
// wrongly typed field is dropped on its own instead of failing the task.
// Anything that is not "everyday" is read as a regular task, and a start
// date that does not parse leaves the task without a window. A JSON value
// that is not an object decodes as an untitled regular task.
func (t *Task) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return fmt.Errorf("task: invalid JSON")
	}
	v := gjson.ParseBytes(b)

	out := Task{
		ID:             TaskID(scalarString(v.Get("id"))),
		Title:          scalarString(v.Get("title")),
		CompletedDates: completedDates(v.Get("completedDates")),
	}

	kind := v.Get("type")
	if kind.Type == gjson.String && Kind(kind.Str) == KindEveryday {
		out.Schedule = Everyday{}
	} else {
		r := Regular{}
		if sd := v.Get("startDate"); sd.Type == gjson.String {
			if start, err := calendar.ParseInstant(sd.Str, time.Local); err == nil {
				r.Window = &Window{Start: start, Duration: duration(v.Get("duration"))}
			}
		}
		out.Schedule = r
	}

	*t = out
	return nil
}

// scalarString keeps strings as is and numbers and booleans as their JSON
// text. Objects, arrays and null read as "".
func scalarString(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number, gjson.True, gjson.False:
		return r.Raw
	}
	return ""
}

// duration accepts a JSON number or a numeric string. Fractions are
// truncated.
func duration(r gjson.Result) *int {
	var f float64
	switch r.Type {
	case gjson.Number:
		f = r.Num
	case gjson.String:
		n, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return nil
		}
		f = n
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	d := int(math.Trunc(f))
	return &d
}

// completedDates keeps only boolean entries of an object.
func completedDates(r gjson.Result) map[string]bool {
	out := map[string]bool{}
	if !r.IsObject() {
		return out
	}
	r.ForEach(func(k, v gjson.Result) bool {
		if v.Type == gjson.True || v.Type == gjson.False {
			out[k.String()] = v.Bool()
		}
		return true
	})
	return out
}
