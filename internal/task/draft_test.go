package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramzan/internal/model"
)

func TestDraftBuild_Everyday(t *testing.T) {
	tk, err := Draft{Title: "  Taraweeh  ", Type: model.KindEveryday, StartDate: "2024-03-10"}.Build("id-1")
	require.NoError(t, err)

	assert.Equal(t, model.TaskID("id-1"), tk.ID)
	assert.Equal(t, "Taraweeh", tk.Title)
	assert.Equal(t, model.Everyday{}, tk.Schedule)
	assert.NotNil(t, tk.CompletedDates)
}

func TestDraftBuild_DefaultsToEveryday(t *testing.T) {
	tk, err := Draft{Title: "Dhikr"}.Build("x")
	require.NoError(t, err)
	assert.Equal(t, model.KindEveryday, tk.Kind())
}

func TestDraftBuild_RegularWithWindow(t *testing.T) {
	tk, err := Draft{
		Title:       "Itikaf",
		Type:        model.KindRegular,
		SetDate:     true,
		StartDate:   "2024-03-10",
		SetDuration: true,
		Duration:    "3",
	}.Build("x")
	require.NoError(t, err)

	w, ok := tk.Window()
	require.True(t, ok)
	assert.Equal(t, day(10), w.Start)
	assert.Equal(t, 3, w.Days())
	assert.True(t, ActiveOn(tk, day(12)))
	assert.False(t, ActiveOn(tk, day(13)))
}

func TestDraftBuild_RegularWithoutDate(t *testing.T) {
	tk, err := Draft{Title: "Someday", Type: model.KindRegular, Duration: ""}.Build("x")
	require.NoError(t, err)

	_, ok := tk.Window()
	assert.False(t, ok)
}

func TestDraftBuild_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		draft  Draft
		fields []string
	}{
		{"empty title", Draft{Title: "   "}, []string{FieldTitle}},
		{"unknown type", Draft{Title: "x", Type: "weekly"}, []string{FieldType}},
		{"date requested but missing", Draft{Title: "x", Type: model.KindRegular, SetDate: true}, []string{FieldStartDate}},
		{"bad date", Draft{Title: "x", Type: model.KindRegular, StartDate: "10/03/2024"}, []string{FieldStartDate}},
		{"duration requested but missing", Draft{Title: "x", Type: model.KindRegular, StartDate: "2024-03-10", SetDuration: true}, []string{FieldDuration}},
		{"non-numeric duration", Draft{Title: "x", Type: model.KindRegular, StartDate: "2024-03-10", Duration: "three"}, []string{FieldDuration}},
		{"zero duration", Draft{Title: "x", Type: model.KindRegular, StartDate: "2024-03-10", Duration: "0"}, []string{FieldDuration}},
		{"negative duration", Draft{Title: "x", Type: model.KindRegular, StartDate: "2024-03-10", Duration: "-2"}, []string{FieldDuration}},
		{"several at once", Draft{Title: "", Type: model.KindRegular, SetDate: true, Duration: "x"}, []string{FieldTitle, FieldStartDate, FieldDuration}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tk, err := tc.draft.Build("x")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDraft))
			assert.Equal(t, model.Task{}, tk)

			var derr *DraftError
			require.ErrorAs(t, err, &derr)
			for _, f := range tc.fields {
				assert.Contains(t, derr.Fields, f)
			}
			assert.Len(t, derr.Fields, len(tc.fields))
		})
	}
}

func TestDraftBuild_DurationIgnoredWithoutDate(t *testing.T) {
	tk, err := Draft{Title: "x", Type: model.KindRegular, SetDuration: true}.Build("x")
	require.NoError(t, err)
	_, ok := tk.Window()
	assert.False(t, ok)
}

func TestDraftError_Message(t *testing.T) {
	err := &DraftError{Fields: map[string]string{FieldTitle: "title is required", FieldDuration: "duration must be positive"}}
	assert.Equal(t, "invalid task: duration: duration must be positive; title: title is required", err.Error())
}

func TestNewID_Unique(t *testing.T) {
	seen := map[model.TaskID]bool{}
	for range 100 {
		id := NewID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
