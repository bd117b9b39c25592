package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ramzan/internal/calendar"
	"ramzan/internal/model"
)

const icsDateLayout = "20060102"

var ErrNoCalendarDate = errors.New("task has no start date to export")

// BuildTaskCalendarICS builds an all-day iCalendar event for a task. A
// regular task spans its window; an everyday task starts on from and
// repeats daily.
func BuildTaskCalendarICS(t model.Task, from calendar.Date, now time.Time) (string, error) {
	var start, end calendar.Date
	rrule := ""

	switch s := t.Schedule.(type) {
	case model.Everyday:
		start, end = from, from
		rrule = "FREQ=DAILY;INTERVAL=1"
	case model.Regular:
		if s.Window == nil || s.Window.Days() <= 0 {
			return "", ErrNoCalendarDate
		}
		start, end = s.Window.Start, s.Window.End()
	default:
		return "", ErrNoCalendarDate
	}

	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = "Ramzan Task"
	}

	uid := fmt.Sprintf("task-%s@ramzan", strings.TrimSpace(string(t.ID)))
	if strings.TrimSpace(string(t.ID)) == "" {
		uid = fmt.Sprintf("task-export-%d@ramzan", now.UnixNano())
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Ramzan//Task Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + escapeICSText(uid),
		"DTSTAMP:" + now.UTC().Format("20060102T150405Z"),
		"SUMMARY:" + escapeICSText(title),
		"DTSTART;VALUE=DATE:" + icsDate(start),
		// DTEND is exclusive for all-day events.
		"DTEND;VALUE=DATE:" + icsDate(end.AddDays(1)),
	}
	if rrule != "" {
		lines = append(lines, "RRULE:"+rrule)
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR", "")

	return strings.Join(lines, "\r\n"), nil
}

func icsDate(d calendar.Date) string {
	return d.Midnight(time.UTC).Format(icsDateLayout)
}

func escapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}
