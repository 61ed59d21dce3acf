package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/participant"
)

type evaluateFixture struct {
	handler         *EvaluateCycleHandler
	goalRepo        *memGoalRepo
	progressRepo    *memProgressRepo
	participantRepo *memParticipantRepo
	verdictRepo     *memVerdictRepo
	streakRepo      *memStreakRepo
	roleSync        *fakeRoleSync
	notifier        *fakeNotifier
}

func newEvaluateFixture(t *testing.T) *evaluateFixture {
	t.Helper()
	f := &evaluateFixture{
		goalRepo:        newMemGoalRepo(),
		progressRepo:    newMemProgressRepo(),
		participantRepo: newMemParticipantRepo(),
		verdictRepo:     newMemVerdictRepo(),
		streakRepo:      &memStreakRepo{},
		roleSync:        &fakeRoleSync{},
		notifier:        &fakeNotifier{},
	}
	f.handler = NewEvaluateCycleHandler(
		f.participantRepo, f.goalRepo, f.progressRepo,
		f.verdictRepo, f.streakRepo, f.roleSync, f.notifier, nil,
	)
	return f
}

func (f *evaluateFixture) enroll(t *testing.T, memberID int64, name string) {
	t.Helper()
	p, err := participant.NewParticipant(participant.MemberID(memberID), name)
	require.NoError(t, err)
	require.NoError(t, f.participantRepo.Upsert(context.Background(), p))
}

func TestEvaluateCycle_TeamWinExtendsStreak(t *testing.T) {
	f := newEvaluateFixture(t)
	ctx := context.Background()

	f.enroll(t, 1, "alice")
	f.enroll(t, 2, "bob")
	seedGoal(t, f.goalRepo, 1, "runs", goal.KindCount, goal.StyleIncremental, 2)
	seedGoal(t, f.goalRepo, 2, "read", goal.KindBoolean, "", 0)

	_, err := f.progressRepo.AddDelta(ctx, 1, testWeek, "runs", 2)
	require.NoError(t, err)
	require.NoError(t, f.progressRepo.SetDone(ctx, 2, testWeek, "read"))

	result, err := f.handler.Handle(ctx, EvaluateCycleCommand{WeekKey: testWeek})
	require.NoError(t, err)

	assert.True(t, result.Verdict.TeamWon())
	assert.True(t, result.StreakApplied)
	assert.Equal(t, 1, result.Streak.Current)
	assert.ElementsMatch(t, []int64{1, 2}, f.roleSync.removed)
	assert.Empty(t, f.roleSync.added)
	assert.Len(t, f.notifier.sent, 1)
}

func TestEvaluateCycle_MissedGoalFailsTeam(t *testing.T) {
	f := newEvaluateFixture(t)
	ctx := context.Background()

	f.enroll(t, 1, "alice")
	f.enroll(t, 2, "bob")
	seedGoal(t, f.goalRepo, 1, "runs", goal.KindCount, goal.StyleIncremental, 3)
	seedGoal(t, f.goalRepo, 2, "read", goal.KindBoolean, "", 0)

	_, err := f.progressRepo.AddDelta(ctx, 1, testWeek, "runs", 3)
	require.NoError(t, err)
	// bob never marks his boolean goal done

	result, err := f.handler.Handle(ctx, EvaluateCycleCommand{WeekKey: testWeek})
	require.NoError(t, err)

	assert.False(t, result.Verdict.TeamWon())
	assert.Equal(t, 0, result.Streak.Current)
	assert.ElementsMatch(t, []int64{1, 2}, f.roleSync.added)
}

func TestEvaluateCycle_ZeroGoalsMemberFailsTeam(t *testing.T) {
	f := newEvaluateFixture(t)
	ctx := context.Background()

	f.enroll(t, 1, "alice")
	f.enroll(t, 2, "bob")
	seedGoal(t, f.goalRepo, 1, "runs", goal.KindCount, goal.StyleIncremental, 1)
	_, err := f.progressRepo.AddDelta(ctx, 1, testWeek, "runs", 1)
	require.NoError(t, err)

	result, err := f.handler.Handle(ctx, EvaluateCycleCommand{WeekKey: testWeek})
	require.NoError(t, err)

	assert.False(t, result.Verdict.TeamWon())
	for _, r := range result.Verdict.Results {
		if r.MemberID == 2 {
			assert.True(t, r.NoGoals)
		}
	}
}

func TestEvaluateCycle_ExcusedMemberIsSkipped(t *testing.T) {
	f := newEvaluateFixture(t)
	ctx := context.Background()

	f.enroll(t, 1, "alice")
	f.enroll(t, 2, "bob")
	seedGoal(t, f.goalRepo, 1, "runs", goal.KindCount, goal.StyleIncremental, 1)
	_, err := f.progressRepo.AddDelta(ctx, 1, testWeek, "runs", 1)
	require.NoError(t, err)

	// bob has no goals but sits this week out
	bob, err := f.participantRepo.Get(ctx, 2)
	require.NoError(t, err)
	bob.ExcuseWeek(testWeek)
	require.NoError(t, f.participantRepo.Upsert(ctx, bob))

	result, err := f.handler.Handle(ctx, EvaluateCycleCommand{WeekKey: testWeek})
	require.NoError(t, err)

	assert.True(t, result.Verdict.TeamWon())
	assert.Len(t, result.Verdict.Results, 1)
}

func TestEvaluateCycle_SecondRunDoesNotReapplyStreak(t *testing.T) {
	f := newEvaluateFixture(t)
	ctx := context.Background()

	f.enroll(t, 1, "alice")
	seedGoal(t, f.goalRepo, 1, "runs", goal.KindCount, goal.StyleIncremental, 1)
	_, err := f.progressRepo.AddDelta(ctx, 1, testWeek, "runs", 1)
	require.NoError(t, err)

	first, err := f.handler.Handle(ctx, EvaluateCycleCommand{WeekKey: testWeek})
	require.NoError(t, err)
	assert.True(t, first.StreakApplied)

	second, err := f.handler.Handle(ctx, EvaluateCycleCommand{WeekKey: testWeek})
	require.NoError(t, err)
	assert.False(t, second.StreakApplied)

	state, err := f.streakRepo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Current)
	assert.Len(t, f.notifier.sent, 1)
}

func TestEvaluateCycle_ComputeOnlyLeavesStreakAlone(t *testing.T) {
	f := newEvaluateFixture(t)
	ctx := context.Background()

	f.enroll(t, 1, "alice")
	seedGoal(t, f.goalRepo, 1, "runs", goal.KindCount, goal.StyleIncremental, 1)

	result, err := f.handler.Handle(ctx, EvaluateCycleCommand{WeekKey: testWeek, ComputeOnly: true})
	require.NoError(t, err)

	assert.False(t, result.StreakApplied)
	assert.Empty(t, f.roleSync.added)
	assert.Empty(t, f.notifier.sent)

	state, err := f.streakRepo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Current)
	assert.Empty(t, state.LastAppliedWeek)

	// The verdict itself is stored even on a preview run.
	stored, err := f.verdictRepo.Get(ctx, testWeek)
	require.NoError(t, err)
	assert.False(t, stored.TeamWon())
}

func TestEvaluateCycle_RetryAfterCorrectionOverwritesVerdict(t *testing.T) {
	f := newEvaluateFixture(t)
	ctx := context.Background()

	f.enroll(t, 1, "alice")
	seedGoal(t, f.goalRepo, 1, "runs", goal.KindCount, goal.StyleIncremental, 3)

	first, err := f.handler.Handle(ctx, EvaluateCycleCommand{WeekKey: testWeek, ComputeOnly: true})
	require.NoError(t, err)
	assert.False(t, first.Verdict.TeamWon())

	_, err = f.progressRepo.AddDelta(ctx, 1, testWeek, "runs", 3)
	require.NoError(t, err)

	second, err := f.handler.Handle(ctx, EvaluateCycleCommand{WeekKey: testWeek, ComputeOnly: true})
	require.NoError(t, err)
	assert.True(t, second.Verdict.TeamWon())

	stored, err := f.verdictRepo.Get(ctx, testWeek)
	require.NoError(t, err)
	assert.True(t, stored.TeamWon())
}
