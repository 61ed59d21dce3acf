package goal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func countParams() NewGoalParams {
	return NewGoalParams{
		MemberID: 1001,
		Name:     "running",
		Kind:     KindCount,
		Style:    StyleIncremental,
		Target:   5,
		Unit:     "km",
	}
}

func booleanParams() NewGoalParams {
	return NewGoalParams{
		MemberID: 1002,
		Name:     "finish the book",
		Kind:     KindBoolean,
	}
}

func TestNewGoal_CountGoal(t *testing.T) {
	g, err := NewGoal(countParams())

	assert.NoError(t, err)
	assert.True(t, g.IsCount())
	assert.True(t, g.AcceptsIncrements())
	assert.False(t, g.AcceptsFinal())
	assert.False(t, g.AcceptsCompletion())
	assert.Equal(t, 5, g.Target)
	assert.Equal(t, "km", g.Unit)
}

func TestNewGoal_BooleanNormalized(t *testing.T) {
	params := booleanParams()
	params.Style = StyleIncremental // ignored for boolean goals
	params.Target = 10

	g, err := NewGoal(params)

	assert.NoError(t, err)
	assert.True(t, g.IsBoolean())
	assert.Equal(t, StyleWeeklyFinal, g.Style, "boolean goals always use weekly-final semantics")
	assert.Equal(t, 0, g.Target)
	assert.True(t, g.AcceptsCompletion())
	assert.False(t, g.AcceptsIncrements())
	assert.False(t, g.AcceptsFinal())
}

func TestNewGoal_WeeklyFinalStyle(t *testing.T) {
	params := countParams()
	params.Style = StyleWeeklyFinal

	g, err := NewGoal(params)

	assert.NoError(t, err)
	assert.True(t, g.AcceptsFinal())
	assert.False(t, g.AcceptsIncrements())
}

func TestNewGoal_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*NewGoalParams)
		wantErr error
	}{
		{"negative member id", func(p *NewGoalParams) { p.MemberID = -1 }, ErrInvalidMemberID},
		{"empty name", func(p *NewGoalParams) { p.Name = "   " }, ErrInvalidName},
		{"unknown kind", func(p *NewGoalParams) { p.Kind = "streak" }, ErrInvalidKind},
		{"unknown style", func(p *NewGoalParams) { p.Style = "hourly" }, ErrInvalidStyle},
		{"zero target", func(p *NewGoalParams) { p.Target = 0 }, ErrInvalidTarget},
		{"negative target", func(p *NewGoalParams) { p.Target = -3 }, ErrInvalidTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := countParams()
			tt.mutate(&params)

			_, err := NewGoal(params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGoal_Passed_Count(t *testing.T) {
	g, err := NewGoal(countParams())
	assert.NoError(t, err)

	assert.False(t, g.Passed(nil), "missing entry counts as zero")
	assert.False(t, g.Passed(&ProgressEntry{Value: 4}))
	assert.True(t, g.Passed(&ProgressEntry{Value: 5}))
	assert.True(t, g.Passed(&ProgressEntry{Value: 9}))
	assert.False(t, g.Passed(&ProgressEntry{Value: 4, Done: true}), "done flag is ignored for count goals")
}

func TestGoal_Passed_Boolean(t *testing.T) {
	g, err := NewGoal(booleanParams())
	assert.NoError(t, err)

	assert.False(t, g.Passed(nil))
	assert.False(t, g.Passed(&ProgressEntry{Value: 100}))
	assert.True(t, g.Passed(&ProgressEntry{Done: true}))
}

func TestProgressEntry_ApplyDeltaClampsAtZero(t *testing.T) {
	entry := &ProgressEntry{MemberID: 1001, WeekKey: "2026-08-31", GoalName: "running"}

	assert.Equal(t, 3, entry.ApplyDelta(3))
	assert.Equal(t, 1, entry.ApplyDelta(-2))
	assert.Equal(t, 0, entry.ApplyDelta(-10), "total never goes below zero")
	assert.Equal(t, 2, entry.ApplyDelta(2))
}

func TestProgressEntry_SetValueClampsAtZero(t *testing.T) {
	entry := &ProgressEntry{MemberID: 1001, WeekKey: "2026-08-31", GoalName: "running"}

	assert.Equal(t, 7, entry.SetValue(7))
	assert.Equal(t, 0, entry.SetValue(-4))
}

func TestProgressEntry_DoneFlag(t *testing.T) {
	entry := &ProgressEntry{MemberID: 1002, WeekKey: "2026-08-31", GoalName: "book"}

	assert.False(t, entry.ClearDone(), "clearing an unset flag reports false")
	entry.MarkDone()
	assert.True(t, entry.Done)
	entry.MarkDone() // no-op
	assert.True(t, entry.ClearDone())
	assert.False(t, entry.Done)
}

func TestNewLogEvent(t *testing.T) {
	event, err := NewLogEvent("e1d2c3b4-a5f6-4789-b0c1-d2e3f4a5b6c7", 1001, "2026-08-31", "running", LogKindAdd, 2, "  morning run  ")

	assert.NoError(t, err)
	assert.Equal(t, "morning run", event.Note)
	assert.True(t, event.HasNote())
	assert.False(t, event.OccurredAt.IsZero())
}

func TestNewLogEvent_Validation(t *testing.T) {
	_, err := NewLogEvent("", 1001, "2026-08-31", "running", LogKindAdd, 1, "")
	assert.Error(t, err)

	_, err = NewLogEvent("id", 0, "2026-08-31", "running", LogKindAdd, 1, "")
	assert.ErrorIs(t, err, ErrInvalidMemberID)

	_, err = NewLogEvent("id", 1001, "2026-09-01", "running", LogKindAdd, 1, "")
	assert.ErrorIs(t, err, ErrInvalidWeekKey)

	_, err = NewLogEvent("id", 1001, "2026-08-31", " ", LogKindAdd, 1, "")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewLogEvent("id", 1001, "2026-08-31", "running", "edit", 1, "")
	assert.ErrorIs(t, err, ErrInvalidLogKind)
}
