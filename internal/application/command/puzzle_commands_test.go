package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/puzzle"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"
)

func joinPuzzle(t *testing.T, repo *memPuzzleRepo, memberID int64) {
	t.Helper()
	ctx := context.Background()
	record, err := repo.GetOrCreate(ctx, puzzle.MemberID(memberID))
	require.NoError(t, err)
	record.Join()
	require.NoError(t, repo.Upsert(ctx, record))
}

func TestRecordPuzzleScore_FromShareText(t *testing.T) {
	repo := newMemPuzzleRepo()
	handler := NewRecordPuzzleScoreHandler(repo, nil)

	result, err := handler.Handle(context.Background(), RecordPuzzleScoreCommand{
		MemberID:  1,
		ShareText: "Wordle 1,204 4/6\n\n⬛🟨⬛⬛⬛\n🟩🟩🟩🟩🟩",
	})
	require.NoError(t, err)

	assert.Equal(t, 1204, result.PuzzleIndex)
	assert.Equal(t, 4, result.Score)
	assert.Equal(t, 4, result.Total)
	assert.False(t, result.Resubmitted)
}

func TestRecordPuzzleScore_FailedBoardChargesPenalty(t *testing.T) {
	repo := newMemPuzzleRepo()
	handler := NewRecordPuzzleScoreHandler(repo, nil)

	result, err := handler.Handle(context.Background(), RecordPuzzleScoreCommand{
		MemberID:  1,
		ShareText: "Wordle 1204 X/6",
	})
	require.NoError(t, err)
	assert.Equal(t, int(puzzle.MissPenalty), result.Score)
}

func TestRecordPuzzleScore_ResubmissionReplacesPriorScore(t *testing.T) {
	repo := newMemPuzzleRepo()
	handler := NewRecordPuzzleScoreHandler(repo, nil)
	ctx := context.Background()

	_, err := handler.Handle(ctx, RecordPuzzleScoreCommand{MemberID: 1, PuzzleIndex: 100, Score: 6})
	require.NoError(t, err)

	result, err := handler.Handle(ctx, RecordPuzzleScoreCommand{MemberID: 1, PuzzleIndex: 100, Score: 2})
	require.NoError(t, err)

	assert.True(t, result.Resubmitted)
	assert.Equal(t, 2, result.Total)

	record, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, record.Games)
}

func TestRecordPuzzleScore_RejectsChatter(t *testing.T) {
	handler := NewRecordPuzzleScoreHandler(newMemPuzzleRepo(), nil)

	_, err := handler.Handle(context.Background(), RecordPuzzleScoreCommand{
		MemberID:  1,
		ShareText: "got it in four today, so close",
	})
	assert.ErrorIs(t, err, shared.ErrMalformedResult)
}

func TestApplyDailyPenalty_ChargesOnlyAbsentPlayers(t *testing.T) {
	repo := newMemPuzzleRepo()
	skips := newMemSkipStore()
	notifier := &fakeNotifier{}
	handler := NewApplyDailyPenaltyHandler(repo, skips, notifier, nil)
	ctx := context.Background()

	joinPuzzle(t, repo, 1)
	joinPuzzle(t, repo, 2)

	date := time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)
	index := timeutil.PuzzleIndex(date)

	// player 1 submitted, player 2 did not
	record, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	_, err = record.RecordScore(index, 3)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(ctx, record))

	result, err := handler.Handle(ctx, ApplyDailyPenaltyCommand{Date: date})
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, result.Penalized)
	assert.Len(t, notifier.sent, 1)

	charged, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	score, ok := charged.ScoreFor(index)
	assert.True(t, ok)
	assert.Equal(t, puzzle.MissPenalty, score)
}

func TestApplyDailyPenalty_RepeatedRunNeverDoubleCharges(t *testing.T) {
	repo := newMemPuzzleRepo()
	handler := NewApplyDailyPenaltyHandler(repo, newMemSkipStore(), nil, nil)
	ctx := context.Background()

	joinPuzzle(t, repo, 1)
	date := time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)

	first, err := handler.Handle(ctx, ApplyDailyPenaltyCommand{Date: date})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, first.Penalized)

	second, err := handler.Handle(ctx, ApplyDailyPenaltyCommand{Date: date})
	require.NoError(t, err)
	assert.Empty(t, second.Penalized)

	record, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int(puzzle.MissPenalty), record.Total)
}

func TestApplyDailyPenalty_SkipMarkerSuppressesOneDate(t *testing.T) {
	repo := newMemPuzzleRepo()
	skips := newMemSkipStore()
	handler := NewApplyDailyPenaltyHandler(repo, skips, nil, nil)
	ctx := context.Background()

	joinPuzzle(t, repo, 1)
	date := time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)
	require.NoError(t, skips.Add(ctx, date))

	result, err := handler.Handle(ctx, ApplyDailyPenaltyCommand{Date: date})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, result.Penalized)

	// The marker is consumed; the next day is charged normally.
	next, err := handler.Handle(ctx, ApplyDailyPenaltyCommand{Date: date.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.False(t, next.Skipped)
	assert.Equal(t, []int64{1}, next.Penalized)
}

func TestClosePuzzleCycle_SettlesPodiumAndResets(t *testing.T) {
	repo := newMemPuzzleRepo()
	podiums := &memPodiumRepo{}
	notifier := &fakeNotifier{}
	handler := NewClosePuzzleCycleHandler(repo, podiums, nil, notifier, nil)
	ctx := context.Background()

	score := func(memberID int64, index, s int) {
		record, err := repo.GetOrCreate(ctx, puzzle.MemberID(memberID))
		require.NoError(t, err)
		_, err = record.RecordScore(index, puzzle.Score(s))
		require.NoError(t, err)
		require.NoError(t, repo.Upsert(ctx, record))
	}

	// totals: A=3, B=3, C=5
	score(1, 100, 3)
	score(2, 100, 3)
	score(3, 100, 5)

	result, err := handler.Handle(ctx, ClosePuzzleCycleCommand{WeekKey: testWeek})
	require.NoError(t, err)

	assert.ElementsMatch(t, []puzzle.MemberID{1, 2}, result.Podium.Gold)
	assert.Equal(t, []puzzle.MemberID{3}, result.Podium.Silver)
	assert.Empty(t, result.Podium.Bronze)
	assert.Equal(t, []puzzle.MemberID{3}, result.Podium.Last)
	assert.Equal(t, 3, result.Players)
	assert.Len(t, notifier.sent, 1)

	// winners credited, per-cycle state cleared, lifetime kept
	winner, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 0, winner.Total)
	assert.Equal(t, 0, winner.Games)

	loser, err := repo.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, loser.LastPlaces)
	assert.Equal(t, 0, loser.Total)

	stored, err := podiums.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, testWeek, stored.WeekKey)
}

func TestClosePuzzleCycle_MarksClosureDayAsSkipped(t *testing.T) {
	repo := newMemPuzzleRepo()
	skips := newMemSkipStore()
	closeHandler := NewClosePuzzleCycleHandler(repo, &memPodiumRepo{}, skips, nil, nil)
	penaltyHandler := NewApplyDailyPenaltyHandler(repo, skips, nil, nil)
	ctx := context.Background()

	joinPuzzle(t, repo, 1)

	_, err := closeHandler.Handle(ctx, ClosePuzzleCycleCommand{WeekKey: testWeek})
	require.NoError(t, err)

	// A penalty pass after the closure finds the day marked and charges
	// nobody against the freshly reset board.
	result, err := penaltyHandler.Handle(ctx, ApplyDailyPenaltyCommand{Date: timeutil.Now()})
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, result.Penalized)
}

func TestClosePuzzleCycle_NoGamesMeansEmptyPodium(t *testing.T) {
	repo := newMemPuzzleRepo()
	handler := NewClosePuzzleCycleHandler(repo, &memPodiumRepo{}, nil, nil, nil)

	joinPuzzle(t, repo, 1)

	result, err := handler.Handle(context.Background(), ClosePuzzleCycleCommand{WeekKey: testWeek})
	require.NoError(t, err)

	assert.Empty(t, result.Podium.Gold)
	assert.Empty(t, result.Podium.Last)
	assert.Equal(t, 0, result.Players)
}
