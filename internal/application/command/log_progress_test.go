package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
)

const testWeek = "2026-08-31"

func intPtr(v int) *int { return &v }

func newLogProgressFixture(t *testing.T) (*LogProgressHandler, *memGoalRepo, *memProgressRepo, *memLogRepo) {
	t.Helper()
	goalRepo := newMemGoalRepo()
	progressRepo := newMemProgressRepo()
	logRepo := &memLogRepo{}
	handler := NewLogProgressHandler(goalRepo, progressRepo, logRepo, nil)
	return handler, goalRepo, progressRepo, logRepo
}

func seedGoal(t *testing.T, repo *memGoalRepo, memberID int64, name string, kind goal.Kind, style goal.Style, target int) {
	t.Helper()
	g, err := goal.NewGoal(goal.NewGoalParams{
		MemberID: goal.MemberID(memberID),
		Name:     name,
		Kind:     kind,
		Style:    style,
		Target:   target,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(context.Background(), g))
}

func TestLogIncremental_DeltaAccumulates(t *testing.T) {
	handler, goalRepo, _, logRepo := newLogProgressFixture(t)
	seedGoal(t, goalRepo, 1, "runs", goal.KindCount, goal.StyleIncremental, 3)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		result, err := handler.HandleIncremental(ctx, LogIncrementalCommand{
			MemberID: 1, GoalName: "runs", Delta: intPtr(1), WeekKey: testWeek,
		})
		require.NoError(t, err)
		assert.Equal(t, i+1, result.NewValue)
	}

	result, err := handler.HandleIncremental(ctx, LogIncrementalCommand{
		MemberID: 1, GoalName: "runs", Delta: intPtr(1), WeekKey: testWeek,
	})
	require.NoError(t, err)
	assert.True(t, result.TargetReached)
	assert.Len(t, logRepo.events, 4)
	assert.Equal(t, goal.LogKindAdd, logRepo.events[0].Kind)
}

func TestLogIncremental_SetOverwrites(t *testing.T) {
	handler, goalRepo, _, logRepo := newLogProgressFixture(t)
	seedGoal(t, goalRepo, 1, "runs", goal.KindCount, goal.StyleIncremental, 5)

	ctx := context.Background()
	_, err := handler.HandleIncremental(ctx, LogIncrementalCommand{
		MemberID: 1, GoalName: "runs", Delta: intPtr(2), WeekKey: testWeek,
	})
	require.NoError(t, err)

	result, err := handler.HandleIncremental(ctx, LogIncrementalCommand{
		MemberID: 1, GoalName: "runs", SetTo: intPtr(4), WeekKey: testWeek,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.NewValue)
	assert.Equal(t, goal.LogKindSet, logRepo.events[1].Kind)
}

func TestLogIncremental_NegativeDeltaClampsAtZero(t *testing.T) {
	handler, goalRepo, _, _ := newLogProgressFixture(t)
	seedGoal(t, goalRepo, 1, "runs", goal.KindCount, goal.StyleIncremental, 3)

	result, err := handler.HandleIncremental(context.Background(), LogIncrementalCommand{
		MemberID: 1, GoalName: "runs", Delta: intPtr(-5), WeekKey: testWeek,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewValue)
}

func TestLogIncremental_RequiresExactlyOneArgument(t *testing.T) {
	handler, goalRepo, _, _ := newLogProgressFixture(t)
	seedGoal(t, goalRepo, 1, "runs", goal.KindCount, goal.StyleIncremental, 3)

	ctx := context.Background()

	_, err := handler.HandleIncremental(ctx, LogIncrementalCommand{
		MemberID: 1, GoalName: "runs", WeekKey: testWeek,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = handler.HandleIncremental(ctx, LogIncrementalCommand{
		MemberID: 1, GoalName: "runs", Delta: intPtr(1), SetTo: intPtr(2), WeekKey: testWeek,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestLogIncremental_RejectsWrongGoalKind(t *testing.T) {
	handler, goalRepo, _, _ := newLogProgressFixture(t)
	seedGoal(t, goalRepo, 1, "read", goal.KindBoolean, "", 0)
	seedGoal(t, goalRepo, 1, "pages", goal.KindCount, goal.StyleWeeklyFinal, 100)

	ctx := context.Background()

	_, err := handler.HandleIncremental(ctx, LogIncrementalCommand{
		MemberID: 1, GoalName: "read", Delta: intPtr(1), WeekKey: testWeek,
	})
	assert.ErrorIs(t, err, goal.ErrWrongKind)

	_, err = handler.HandleIncremental(ctx, LogIncrementalCommand{
		MemberID: 1, GoalName: "pages", Delta: intPtr(1), WeekKey: testWeek,
	})
	assert.ErrorIs(t, err, goal.ErrWrongKind)
}

func TestLogFinal_ReportsWeekEndValue(t *testing.T) {
	handler, goalRepo, _, logRepo := newLogProgressFixture(t)
	seedGoal(t, goalRepo, 1, "pages", goal.KindCount, goal.StyleWeeklyFinal, 100)

	result, err := handler.HandleFinal(context.Background(), LogFinalCommand{
		MemberID: 1, GoalName: "pages", Value: 120, WeekKey: testWeek,
	})
	require.NoError(t, err)
	assert.Equal(t, 120, result.NewValue)
	assert.True(t, result.TargetReached)
	assert.Equal(t, goal.LogKindFinal, logRepo.events[0].Kind)
}

func TestLogFinal_RejectsIncrementalGoal(t *testing.T) {
	handler, goalRepo, _, _ := newLogProgressFixture(t)
	seedGoal(t, goalRepo, 1, "runs", goal.KindCount, goal.StyleIncremental, 3)

	_, err := handler.HandleFinal(context.Background(), LogFinalCommand{
		MemberID: 1, GoalName: "runs", Value: 5, WeekKey: testWeek,
	})
	assert.ErrorIs(t, err, goal.ErrWrongKind)
}

func TestComplete_MarksBooleanGoalDone(t *testing.T) {
	handler, goalRepo, progressRepo, logRepo := newLogProgressFixture(t)
	seedGoal(t, goalRepo, 1, "read", goal.KindBoolean, "", 0)

	ctx := context.Background()
	result, err := handler.HandleComplete(ctx, CompleteGoalCommand{
		MemberID: 1, GoalName: "read", WeekKey: testWeek,
	})
	require.NoError(t, err)
	assert.True(t, result.Done)

	entry, err := progressRepo.Get(ctx, 1, testWeek, "read")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.Done)
	assert.Equal(t, goal.LogKindComplete, logRepo.events[0].Kind)
}

func TestUndo_ClearsMarkAndLogsOnce(t *testing.T) {
	handler, goalRepo, _, logRepo := newLogProgressFixture(t)
	seedGoal(t, goalRepo, 1, "read", goal.KindBoolean, "", 0)

	ctx := context.Background()
	_, err := handler.HandleComplete(ctx, CompleteGoalCommand{
		MemberID: 1, GoalName: "read", WeekKey: testWeek,
	})
	require.NoError(t, err)

	result, err := handler.HandleUndo(ctx, UndoCompleteCommand{
		MemberID: 1, GoalName: "read", WeekKey: testWeek,
	})
	require.NoError(t, err)
	assert.True(t, result.Undone)

	// A second undo is a no-op and leaves no ledger trace.
	result, err = handler.HandleUndo(ctx, UndoCompleteCommand{
		MemberID: 1, GoalName: "read", WeekKey: testWeek,
	})
	require.NoError(t, err)
	assert.False(t, result.Undone)
	assert.Len(t, logRepo.events, 2)
	assert.Equal(t, goal.LogKindUndo, logRepo.events[1].Kind)
}

func TestLogProgress_UnknownGoal(t *testing.T) {
	handler, _, _, _ := newLogProgressFixture(t)

	_, err := handler.HandleIncremental(context.Background(), LogIncrementalCommand{
		MemberID: 1, GoalName: "ghost", Delta: intPtr(1), WeekKey: testWeek,
	})
	assert.ErrorIs(t, err, goal.ErrGoalNotFound)
}

func TestLastNote_UsesInsertionOrder(t *testing.T) {
	handler, goalRepo, _, logRepo := newLogProgressFixture(t)
	seedGoal(t, goalRepo, 1, "runs", goal.KindCount, goal.StyleIncremental, 3)

	ctx := context.Background()
	_, err := handler.HandleIncremental(ctx, LogIncrementalCommand{
		MemberID: 1, GoalName: "runs", Delta: intPtr(1), Note: "morning jog", WeekKey: testWeek,
	})
	require.NoError(t, err)
	_, err = handler.HandleIncremental(ctx, LogIncrementalCommand{
		MemberID: 1, GoalName: "runs", Delta: intPtr(1), WeekKey: testWeek,
	})
	require.NoError(t, err)
	_, err = handler.HandleIncremental(ctx, LogIncrementalCommand{
		MemberID: 1, GoalName: "runs", Delta: intPtr(1), Note: "evening run", WeekKey: testWeek,
	})
	require.NoError(t, err)

	note, ok, err := logRepo.LastNote(ctx, 1, testWeek)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "evening run", note)
}
