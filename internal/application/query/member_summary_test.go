package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
)

const testWeek = "2026-08-31"

type stubGoalRepo struct {
	goals []*goal.Goal
}

func (r *stubGoalRepo) Upsert(context.Context, *goal.Goal) error { return nil }

func (r *stubGoalRepo) Get(_ context.Context, m goal.MemberID, name string) (*goal.Goal, error) {
	for _, g := range r.goals {
		if g.MemberID == m && g.Name == name {
			return g, nil
		}
	}
	return nil, goal.ErrGoalNotFound
}

func (r *stubGoalRepo) ListByMember(_ context.Context, m goal.MemberID) ([]*goal.Goal, error) {
	var out []*goal.Goal
	for _, g := range r.goals {
		if g.MemberID == m {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *stubGoalRepo) ListAll(context.Context) ([]*goal.Goal, error) { return r.goals, nil }

func (r *stubGoalRepo) Delete(context.Context, goal.MemberID, string) error { return nil }

func (r *stubGoalRepo) CountByMember(ctx context.Context, m goal.MemberID) (int, error) {
	goals, _ := r.ListByMember(ctx, m)
	return len(goals), nil
}

type stubProgressRepo struct {
	entries []*goal.ProgressEntry
}

func (r *stubProgressRepo) AddDelta(context.Context, goal.MemberID, goal.WeekKey, string, int) (int, error) {
	return 0, nil
}

func (r *stubProgressRepo) SetValue(context.Context, goal.MemberID, goal.WeekKey, string, int) (int, error) {
	return 0, nil
}

func (r *stubProgressRepo) SetDone(context.Context, goal.MemberID, goal.WeekKey, string) error {
	return nil
}

func (r *stubProgressRepo) ClearDone(context.Context, goal.MemberID, goal.WeekKey, string) (bool, error) {
	return false, nil
}

func (r *stubProgressRepo) Get(_ context.Context, m goal.MemberID, w goal.WeekKey, name string) (*goal.ProgressEntry, error) {
	for _, e := range r.entries {
		if e.MemberID == m && e.WeekKey == w && e.GoalName == name {
			return e, nil
		}
	}
	return nil, nil
}

func (r *stubProgressRepo) ListByWeek(_ context.Context, w goal.WeekKey) ([]*goal.ProgressEntry, error) {
	var out []*goal.ProgressEntry
	for _, e := range r.entries {
		if e.WeekKey == w {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubProgressRepo) ListByMemberWeek(_ context.Context, m goal.MemberID, w goal.WeekKey) ([]*goal.ProgressEntry, error) {
	var out []*goal.ProgressEntry
	for _, e := range r.entries {
		if e.MemberID == m && e.WeekKey == w {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubProgressRepo) ResetWeek(context.Context, goal.WeekKey) error { return nil }

type stubLogRepo struct {
	events []*goal.LogEvent
}

func (r *stubLogRepo) Append(context.Context, *goal.LogEvent) error { return nil }

func (r *stubLogRepo) ListByMemberWeek(_ context.Context, m goal.MemberID, w goal.WeekKey) ([]*goal.LogEvent, error) {
	var out []*goal.LogEvent
	for _, e := range r.events {
		if e.MemberID == m && e.WeekKey == w {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *stubLogRepo) ListByWeek(context.Context, goal.WeekKey) ([]*goal.LogEvent, error) {
	return r.events, nil
}

func (r *stubLogRepo) LastNote(ctx context.Context, m goal.MemberID, w goal.WeekKey) (string, bool, error) {
	events, _ := r.ListByMemberWeek(ctx, m, w)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].HasNote() {
			return events[i].Note, true, nil
		}
	}
	return "", false, nil
}

func mustGoal(t *testing.T, memberID int64, name string, kind goal.Kind, style goal.Style, target int) *goal.Goal {
	t.Helper()
	g, err := goal.NewGoal(goal.NewGoalParams{
		MemberID: goal.MemberID(memberID),
		Name:     name,
		Kind:     kind,
		Style:    style,
		Target:   target,
	})
	require.NoError(t, err)
	return g
}

func TestMemberSummary_ReportsStandingAndLastNote(t *testing.T) {
	goals := &stubGoalRepo{goals: []*goal.Goal{
		mustGoal(t, 1, "runs", goal.KindCount, goal.StyleIncremental, 3),
		mustGoal(t, 1, "read", goal.KindBoolean, "", 0),
	}}
	progress := &stubProgressRepo{entries: []*goal.ProgressEntry{
		{MemberID: 1, WeekKey: testWeek, GoalName: "runs", Value: 2},
	}}

	note1, err := goal.NewLogEvent("a", 1, testWeek, "runs", goal.LogKindAdd, 1, "first")
	require.NoError(t, err)
	note2, err := goal.NewLogEvent("b", 1, testWeek, "runs", goal.LogKindAdd, 1, "latest")
	require.NoError(t, err)
	logs := &stubLogRepo{events: []*goal.LogEvent{note1, note2}}

	handler := NewGetMemberSummaryHandler(goals, progress, logs, nil)

	summary, err := handler.Handle(context.Background(), GetMemberSummaryQuery{MemberID: 1, WeekKey: testWeek})
	require.NoError(t, err)

	assert.Len(t, summary.Goals, 2)
	assert.Equal(t, 0, summary.PassedCount)
	assert.False(t, summary.OnTrack)
	assert.Equal(t, "latest", summary.LastNote)
	assert.True(t, summary.HasNote)

	for _, g := range summary.Goals {
		switch g.Name {
		case "runs":
			assert.Equal(t, 2, g.Value)
			assert.False(t, g.Passed)
		case "read":
			assert.False(t, g.Done)
			assert.False(t, g.Passed)
		}
	}
}

func TestMemberSummary_OnTrackWhenAllGoalsClear(t *testing.T) {
	goals := &stubGoalRepo{goals: []*goal.Goal{
		mustGoal(t, 1, "runs", goal.KindCount, goal.StyleIncremental, 2),
	}}
	progress := &stubProgressRepo{entries: []*goal.ProgressEntry{
		{MemberID: 1, WeekKey: testWeek, GoalName: "runs", Value: 2, UpdatedAt: time.Now()},
	}}
	handler := NewGetMemberSummaryHandler(goals, progress, &stubLogRepo{}, nil)

	summary, err := handler.Handle(context.Background(), GetMemberSummaryQuery{MemberID: 1, WeekKey: testWeek})
	require.NoError(t, err)

	assert.True(t, summary.OnTrack)
	assert.False(t, summary.HasNote)
}

func TestActivityLog_RejectsBadWeekKey(t *testing.T) {
	handler := NewGetActivityLogHandler(&stubLogRepo{})

	_, err := handler.Handle(context.Background(), GetActivityLogQuery{MemberID: 1, WeekKey: "not-a-monday"})
	assert.ErrorIs(t, err, goal.ErrInvalidWeekKey)
}
