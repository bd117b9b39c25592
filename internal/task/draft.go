package task

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ramzan/internal/calendar"
	"ramzan/internal/model"
)

const (
	FieldTitle     = "title"
	FieldType      = "type"
	FieldStartDate = "startDate"
	FieldDuration  = "duration"
)

var ErrInvalidDraft = errors.New("invalid task")

// Draft is what the add form collects before a Task exists. StartDate and
// Duration are raw input; SetDate and SetDuration record that the user
// asked for them, so an empty value is an error rather than "unset".
type Draft struct {
	Title       string
	Type        model.Kind
	SetDate     bool
	StartDate   string
	SetDuration bool
	Duration    string
}

// DraftError flags each offending field.
type DraftError struct {
	Fields map[string]string
}

func (e *DraftError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidDraft, strings.Join(parts, "; "))
}

func (e *DraftError) Is(target error) bool { return target == ErrInvalidDraft }

// NewID returns a fresh task id.
func NewID() model.TaskID {
	return model.TaskID(uuid.NewString())
}

// Build validates the draft and constructs the task. Nothing is built when
// any field is rejected.
func (d Draft) Build(id model.TaskID) (model.Task, error) {
	fields := map[string]string{}

	title := strings.TrimSpace(d.Title)
	if title == "" {
		fields[FieldTitle] = "title is required"
	}

	kind := d.Type
	if kind == "" {
		kind = model.KindEveryday
	}

	var sched model.Schedule
	switch kind {
	case model.KindEveryday:
		sched = model.Everyday{}
	case model.KindRegular:
		win, ok := d.window(fields)
		if ok {
			sched = model.Regular{Window: win}
		}
	default:
		fields[FieldType] = fmt.Sprintf("unknown task type %q", d.Type)
	}

	if len(fields) > 0 {
		return model.Task{}, &DraftError{Fields: fields}
	}

	return model.Task{
		ID:             id,
		Title:          title,
		Schedule:       sched,
		CompletedDates: map[string]bool{},
	}, nil
}

func (d Draft) window(fields map[string]string) (*model.Window, bool) {
	rawStart := strings.TrimSpace(d.StartDate)
	rawDuration := strings.TrimSpace(d.Duration)
	setDate := d.SetDate || rawStart != ""
	setDuration := d.SetDuration || rawDuration != ""

	if !setDate {
		return nil, true
	}

	var win *model.Window
	if rawStart == "" {
		fields[FieldStartDate] = "start date is required"
	} else if start, err := calendar.ParseInstant(rawStart, time.Local); err != nil {
		fields[FieldStartDate] = "start date must be YYYY-MM-DD"
	} else {
		win = &model.Window{Start: start}
	}

	if setDuration {
		n, err := strconv.Atoi(rawDuration)
		switch {
		case rawDuration == "":
			fields[FieldDuration] = "duration is required"
		case err != nil:
			fields[FieldDuration] = "duration must be a whole number of days"
		case n <= 0:
			fields[FieldDuration] = "duration must be positive"
		default:
			if win != nil {
				win.Duration = &n
			}
		}
	}

	if _, bad := fields[FieldStartDate]; bad {
		return nil, false
	}
	if _, bad := fields[FieldDuration]; bad {
		return nil, false
	}
	return win, true
}
