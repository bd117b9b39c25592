package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramzan/internal/blob"
	"ramzan/internal/calendar"
	"ramzan/internal/config"
	"ramzan/internal/prayer"
	"ramzan/internal/task"
)

type harness struct {
	t     *testing.T
	store *blob.MemoryStore
	clock *calendar.FakeClock
	errb  bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Setenv("RAMZAN_STORE_BACKEND", "memory")
	return &harness{
		t:     t,
		store: blob.NewMemoryStore(),
		clock: calendar.NewFakeClock(time.Date(2024, 3, 11, 13, 0, 0, 0, time.Local)),
	}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out bytes.Buffer
	h.errb.Reset()
	a := &app{
		stdout: &out,
		stderr: &h.errb,
		clock:  h.clock,
		provider: prayer.Static{
			Times: prayer.Times{
				Fajr: "05:00", Dhuhr: "12:30", Asr: "16:00", Maghrib: "18:20", Isha: "19:45",
			},
			HijriDate: "1 Ramadan 1445",
		},
		openStore: func(context.Context, config.StoreConfig) (blob.Store, func() error, error) {
			return h.store, func() error { return nil }, nil
		},
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	require.NoError(h.t, a.teardown())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "stderr: %s", h.errb.String())
	return out
}

func TestTasksAddListRemove(t *testing.T) {
	h := newHarness(t)

	id := strings.TrimSpace(h.mustRun("tasks", "add", "--title", "Read Quran"))
	require.NotEmpty(t, id)
	h.mustRun("tasks", "add", "--title", "Itikaf", "--type", "regular", "--start", "2024-03-10", "--duration", "3")

	out := h.mustRun("tasks", "list")
	assert.Contains(t, out, "Read Quran")
	assert.Contains(t, out, "daily")
	assert.Contains(t, out, "2024-03-10..2024-03-12")

	h.mustRun("tasks", "rm", id)
	out = h.mustRun("tasks", "list")
	assert.NotContains(t, out, "Read Quran")

	// removing again is a no-op
	h.mustRun("tasks", "rm", id)
}

func TestTasksAdd_InvalidDraftDoesNotMutate(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("tasks", "add", "--title", "", "--type", "regular", "--start", "soon", "--duration", "0")
	require.ErrorIs(t, err, task.ErrInvalidDraft)
	assert.Contains(t, h.errb.String(), "title:")
	assert.Contains(t, h.errb.String(), "startDate:")
	assert.Contains(t, h.errb.String(), "duration:")

	_, ok, err := h.store.Get(context.Background(), task.StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToggle(t *testing.T) {
	h := newHarness(t)
	id := strings.TrimSpace(h.mustRun("tasks", "add", "--title", "Fast"))

	out := h.mustRun("toggle", id)
	assert.Contains(t, out, "[x] Fast on 2024-03-11")

	out = h.mustRun("toggle", id, "--date", "2024-03-11")
	assert.Contains(t, out, "[ ] Fast")

	out = h.mustRun("toggle", id, "--date", "2024-03-12")
	assert.Contains(t, out, "in the future")

	out = h.mustRun("toggle", "missing")
	assert.Contains(t, out, "nothing changed")

	_, err := h.run("toggle", id, "--date", "12/03/2024")
	assert.Error(t, err)
}

func TestCalendar(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tasks", "add", "--title", "Sadaqah", "--type", "regular", "--start", "2024-03-14")

	out := h.mustRun("calendar", "--date", "2024-03-14")
	assert.Contains(t, out, "March 2024")
	assert.Contains(t, out, "Tasks for 2024-03-14 (read-only)")
	assert.Contains(t, out, "[ ] Sadaqah")

	out = h.mustRun("calendar", "--date", "2024-03-13")
	assert.Contains(t, out, "nothing scheduled")
	assert.Contains(t, out, "*14")
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)
	id := strings.TrimSpace(h.mustRun("tasks", "add", "--title", "Fast"))
	h.mustRun("tasks", "add", "--title", "Taraweeh")
	h.mustRun("toggle", id)

	out := h.mustRun("dashboard")
	assert.Contains(t, out, "Monday 2024-03-11  13:00")
	assert.Contains(t, out, "1 Ramadan 1445")
	assert.Contains(t, out, "4:00 pm  <- next")
	assert.Contains(t, out, "Today: 1/2 done (50%)")
	assert.Contains(t, out, "[x] Fast")
}

func TestExportICS(t *testing.T) {
	h := newHarness(t)
	id := strings.TrimSpace(h.mustRun("tasks", "add", "--title", "Zakat", "--type", "regular", "--start", "2024-03-20", "--duration", "2"))

	out := h.mustRun("export-ics", id)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240320")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20240322")

	undated := strings.TrimSpace(h.mustRun("tasks", "add", "--title", "Someday", "--type", "regular"))
	_, err := h.run("export-ics", undated)
	assert.ErrorIs(t, err, task.ErrNoCalendarDate)
}

func TestBackupRestore(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tasks", "add", "--title", "Fast")
	archive := filepath.Join(t.TempDir(), "snap.tar.gz")

	out := h.mustRun("backup", "--out", archive)
	assert.Contains(t, out, "(1 tasks)")

	out = h.mustRun("restore", "--verify", archive)
	assert.Contains(t, out, "ok: 1 tasks")

	fresh := newHarness(t)
	out = fresh.mustRun("restore", archive)
	assert.Contains(t, out, "restored 1 tasks")
	assert.Contains(t, fresh.mustRun("tasks", "list"), "Fast")

	out = h.mustRun("drill", "--work-dir", t.TempDir())
	assert.Contains(t, out, "digest ramzan-tasks:")
}
