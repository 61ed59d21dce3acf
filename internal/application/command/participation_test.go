package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/participant"
)

func newParticipationFixture() (*ParticipationHandler, *memParticipantRepo, *memPuzzleRepo) {
	participants := newMemParticipantRepo()
	puzzles := newMemPuzzleRepo()
	return NewParticipationHandler(participants, puzzles, nil), participants, puzzles
}

func TestJoinChallenge_EnrollsAndIsIdempotent(t *testing.T) {
	handler, participants, _ := newParticipationFixture()
	ctx := context.Background()

	result, err := handler.HandleJoin(ctx, JoinChallengeCommand{MemberID: 1, DisplayName: "alice"})
	require.NoError(t, err)
	assert.False(t, result.Rejoined)

	// repeat join just refreshes the name
	result, err = handler.HandleJoin(ctx, JoinChallengeCommand{MemberID: 1, DisplayName: "alice v2"})
	require.NoError(t, err)
	assert.False(t, result.Rejoined)

	p, err := participants.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice v2", p.DisplayName)
	assert.True(t, p.Active)
}

func TestLeaveAndRejoinChallenge(t *testing.T) {
	handler, participants, _ := newParticipationFixture()
	ctx := context.Background()

	_, err := handler.HandleJoin(ctx, JoinChallengeCommand{MemberID: 1, DisplayName: "alice"})
	require.NoError(t, err)

	_, err = handler.HandleLeave(ctx, LeaveChallengeCommand{MemberID: 1})
	require.NoError(t, err)

	p, err := participants.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, p.Active)

	_, err = handler.HandleLeave(ctx, LeaveChallengeCommand{MemberID: 1})
	assert.ErrorIs(t, err, participant.ErrNotActive)

	result, err := handler.HandleJoin(ctx, JoinChallengeCommand{MemberID: 1, DisplayName: "alice"})
	require.NoError(t, err)
	assert.True(t, result.Rejoined)
}

func TestSkipWeek_RequiresActiveMemberAndMondayKey(t *testing.T) {
	handler, participants, _ := newParticipationFixture()
	ctx := context.Background()

	_, err := handler.HandleJoin(ctx, JoinChallengeCommand{MemberID: 1, DisplayName: "alice"})
	require.NoError(t, err)

	_, err = handler.HandleSkipWeek(ctx, SkipWeekCommand{MemberID: 1, WeekKey: "2026-09-02"})
	assert.Error(t, err)

	result, err := handler.HandleSkipWeek(ctx, SkipWeekCommand{MemberID: 1, WeekKey: testWeek})
	require.NoError(t, err)
	assert.Equal(t, testWeek, result.SkipWeek)

	p, err := participants.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, testWeek, p.SkipWeek)
}

func TestJoinAndLeavePuzzle(t *testing.T) {
	handler, _, puzzles := newParticipationFixture()
	ctx := context.Background()

	_, err := handler.HandleJoinPuzzle(ctx, JoinPuzzleCommand{MemberID: 5})
	require.NoError(t, err)

	record, err := puzzles.Get(ctx, 5)
	require.NoError(t, err)
	assert.True(t, record.Joined)

	_, err = handler.HandleLeavePuzzle(ctx, LeavePuzzleCommand{MemberID: 5})
	require.NoError(t, err)

	record, err = puzzles.Get(ctx, 5)
	require.NoError(t, err)
	assert.False(t, record.Joined)
}

func TestSetGoal_StoresAndReplaces(t *testing.T) {
	repo := newMemGoalRepo()
	handler := NewSetGoalHandler(repo, nil)
	ctx := context.Background()

	result, err := handler.Handle(ctx, SetGoalCommand{
		MemberID: 1, Name: "runs", Kind: "count", Style: "incremental", Target: 3, Unit: "times",
	})
	require.NoError(t, err)
	assert.False(t, result.Replaced)

	result, err = handler.Handle(ctx, SetGoalCommand{
		MemberID: 1, Name: "runs", Kind: "count", Style: "incremental", Target: 5,
	})
	require.NoError(t, err)
	assert.True(t, result.Replaced)
	assert.Equal(t, 5, result.Goal.Target)
}

func TestRemoveGoal(t *testing.T) {
	repo := newMemGoalRepo()
	setHandler := NewSetGoalHandler(repo, nil)
	removeHandler := NewRemoveGoalHandler(repo, nil)
	ctx := context.Background()

	_, err := setHandler.Handle(ctx, SetGoalCommand{MemberID: 1, Name: "read", Kind: "boolean"})
	require.NoError(t, err)

	result, err := removeHandler.Handle(ctx, RemoveGoalCommand{MemberID: 1, Name: "read"})
	require.NoError(t, err)
	assert.Equal(t, "read", result.Removed.Name)

	_, err = removeHandler.Handle(ctx, RemoveGoalCommand{MemberID: 1, Name: "read"})
	assert.ErrorIs(t, err, goal.ErrGoalNotFound)
}

func TestResetCycle_ClearsWeekAndConsumesFinishedWeekSkips(t *testing.T) {
	const prevWeek = "2026-08-24"

	progress := newMemProgressRepo()
	participants := newMemParticipantRepo()
	handler := NewResetCycleHandler(progress, participants, nil)
	ctx := context.Background()

	_, err := progress.AddDelta(ctx, 1, testWeek, "runs", 3)
	require.NoError(t, err)

	spent, err := participant.NewParticipant(2, "bob")
	require.NoError(t, err)
	spent.ExcuseWeek(prevWeek)
	require.NoError(t, participants.Upsert(ctx, spent))

	pending, err := participant.NewParticipant(3, "carol")
	require.NoError(t, err)
	pending.ExcuseWeek(testWeek)
	require.NoError(t, participants.Upsert(ctx, pending))

	result, err := handler.Handle(ctx, ResetCycleCommand{WeekKey: testWeek})
	require.NoError(t, err)
	assert.Equal(t, prevWeek, result.FinishedWeek)
	assert.Equal(t, []int64{2}, result.ConsumedSkips)

	entries, err := progress.ListByWeek(ctx, testWeek)
	require.NoError(t, err)
	assert.Empty(t, entries)

	stored, err := participants.Get(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, stored.SkipWeek)

	// An excuse for the opening week outlives the reset; its evaluation
	// is still ahead of it.
	stored, err = participants.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, testWeek, stored.SkipWeek)
	assert.False(t, stored.IsEvaluated(testWeek))
}

func TestResetCycle_RejectsNonMondayKey(t *testing.T) {
	handler := NewResetCycleHandler(newMemProgressRepo(), newMemParticipantRepo(), nil)

	_, err := handler.Handle(context.Background(), ResetCycleCommand{WeekKey: "2026-09-02"})
	assert.Error(t, err)
}
