package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ramzan/internal/calendar"
	"ramzan/internal/model"
)

func TestActiveOn_EverydayMatchesAnyDate(t *testing.T) {
	tk := everyday("e")
	for _, d := range []calendar.Date{calendar.New(1999, 1, 1), day(10), calendar.New(2100, 12, 31)} {
		assert.True(t, ActiveOn(tk, d), d.Key())
	}
}

func TestActiveOn_RegularWindow(t *testing.T) {
	tk := regular("r", day(10), intPtr(3))

	assert.False(t, ActiveOn(tk, day(9)))
	assert.True(t, ActiveOn(tk, day(10)))
	assert.True(t, ActiveOn(tk, day(11)))
	assert.True(t, ActiveOn(tk, day(12)))
	assert.False(t, ActiveOn(tk, day(13)))
}

func TestActiveOn_MissingDurationIsSingleDay(t *testing.T) {
	tk := regular("r", day(10), nil)

	assert.False(t, ActiveOn(tk, day(9)))
	assert.True(t, ActiveOn(tk, day(10)))
	assert.False(t, ActiveOn(tk, day(11)))
}

func TestActiveOn_DegenerateDurationMatchesNothing(t *testing.T) {
	for _, n := range []int{0, -3} {
		tk := regular("r", day(10), intPtr(n))
		for d := 5; d <= 15; d++ {
			assert.False(t, ActiveOn(tk, day(d)), "duration %d day %d", n, d)
		}
	}
}

func TestActiveOn_UndatedRegularMatchesNothing(t *testing.T) {
	tk := undated("u")
	assert.False(t, ActiveOn(tk, day(10)))
	assert.False(t, ActiveToday(tk, day(10)))
}

func TestActiveToday_OnlyStartDay(t *testing.T) {
	tk := regular("r", day(10), intPtr(3))

	assert.True(t, ActiveToday(tk, day(10)))
	assert.False(t, ActiveToday(tk, day(11)), "later days of the window do not count")
	assert.False(t, ActiveToday(tk, day(9)))
	assert.True(t, ActiveToday(everyday("e"), day(11)))
}

func TestForDate_KeepsOrder(t *testing.T) {
	tasks := []model.Task{
		regular("a", day(10), intPtr(2)),
		everyday("b"),
		undated("c"),
		regular("d", day(11), nil),
	}

	assert.Equal(t, []model.TaskID{"a", "b"}, ids(ForDate(tasks, day(10))))
	assert.Equal(t, []model.TaskID{"a", "b", "d"}, ids(ForDate(tasks, day(11))))
	assert.Equal(t, []model.TaskID{"b"}, ids(ForDate(tasks, day(12))))
}

func TestDueToday(t *testing.T) {
	tasks := []model.Task{
		regular("a", day(10), intPtr(2)),
		everyday("b"),
		undated("c"),
	}
	assert.Equal(t, []model.TaskID{"a", "b"}, ids(DueToday(tasks, day(10))))
	assert.Equal(t, []model.TaskID{"b"}, ids(DueToday(tasks, day(11))))
}

func TestRegularOnAndDensity(t *testing.T) {
	tasks := []model.Task{
		regular("a", day(10), intPtr(3)),
		regular("b", day(11), nil),
		everyday("c"),
	}
	today := day(11)

	assert.Equal(t, []model.TaskID{"a", "b"}, ids(RegularOn(tasks, day(11))))
	assert.Equal(t, 0, Density(tasks, day(10), today), "past days show no dots")
	assert.Equal(t, 2, Density(tasks, day(11), today))
	assert.Equal(t, 1, Density(tasks, day(12), today))
	assert.Equal(t, 0, Density(tasks, day(13), today))
}

func TestMonthDensity(t *testing.T) {
	tasks := []model.Task{
		regular("a", calendar.New(2024, 3, 30), intPtr(4)),
		everyday("c"),
	}

	got := MonthDensity(tasks, 2024, time.March, day(1))
	assert.Equal(t, map[string]int{"2024-03-30": 1, "2024-03-31": 1}, got)

	got = MonthDensity(tasks, 2024, time.April, day(1))
	assert.Equal(t, map[string]int{"2024-04-01": 1, "2024-04-02": 1}, got)
}
