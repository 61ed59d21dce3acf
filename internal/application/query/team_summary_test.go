package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/challenge"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/participant"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/puzzle"
)

type stubParticipantRepo struct {
	members []*participant.Participant
}

func (r *stubParticipantRepo) Upsert(context.Context, *participant.Participant) error { return nil }

func (r *stubParticipantRepo) Get(_ context.Context, m participant.MemberID) (*participant.Participant, error) {
	for _, p := range r.members {
		if p.MemberID == m {
			return p, nil
		}
	}
	return nil, participant.ErrNotFound
}

func (r *stubParticipantRepo) ListActive(_ context.Context) ([]*participant.Participant, error) {
	var out []*participant.Participant
	for _, p := range r.members {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *stubParticipantRepo) ListAll(context.Context) ([]*participant.Participant, error) {
	return r.members, nil
}

func (r *stubParticipantRepo) CountActive(ctx context.Context) (int, error) {
	active, _ := r.ListActive(ctx)
	return len(active), nil
}

type stubStreakRepo struct {
	state *challenge.StreakState
}

func (r *stubStreakRepo) Get(context.Context) (*challenge.StreakState, error) {
	if r.state == nil {
		return &challenge.StreakState{}, nil
	}
	return r.state, nil
}

func (r *stubStreakRepo) Save(_ context.Context, s *challenge.StreakState) error {
	r.state = s
	return nil
}

type stubVerdictRepo struct {
	verdicts []*challenge.CycleVerdict
}

func (r *stubVerdictRepo) Upsert(context.Context, *challenge.CycleVerdict) error { return nil }

func (r *stubVerdictRepo) Get(_ context.Context, w goal.WeekKey) (*challenge.CycleVerdict, error) {
	for _, v := range r.verdicts {
		if v.WeekKey == w {
			return v, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubVerdictRepo) ListRecent(_ context.Context, limit int) ([]*challenge.CycleVerdict, error) {
	if limit > len(r.verdicts) {
		limit = len(r.verdicts)
	}
	return r.verdicts[:limit], nil
}

type stubPuzzleRepo struct {
	records []*puzzle.PlayerRecord
}

func (r *stubPuzzleRepo) Upsert(context.Context, *puzzle.PlayerRecord) error { return nil }

func (r *stubPuzzleRepo) Get(_ context.Context, m puzzle.MemberID) (*puzzle.PlayerRecord, error) {
	for _, rec := range r.records {
		if rec.MemberID == m {
			return rec, nil
		}
	}
	return nil, puzzle.ErrNotFound
}

func (r *stubPuzzleRepo) GetOrCreate(ctx context.Context, m puzzle.MemberID) (*puzzle.PlayerRecord, error) {
	if rec, err := r.Get(ctx, m); err == nil {
		return rec, nil
	}
	return puzzle.NewPlayerRecord(m)
}

func (r *stubPuzzleRepo) ListAll(context.Context) ([]*puzzle.PlayerRecord, error) {
	return r.records, nil
}

func (r *stubPuzzleRepo) ListJoined(context.Context) ([]*puzzle.PlayerRecord, error) {
	var out []*puzzle.PlayerRecord
	for _, rec := range r.records {
		if rec.Joined {
			out = append(out, rec)
		}
	}
	return out, nil
}

type stubPodiumRepo struct {
	podium *puzzle.Podium
}

func (r *stubPodiumRepo) Save(_ context.Context, p *puzzle.Podium) error {
	r.podium = p
	return nil
}

func (r *stubPodiumRepo) GetLatest(context.Context) (*puzzle.Podium, error) {
	if r.podium == nil {
		return nil, puzzle.ErrNotFound
	}
	return r.podium, nil
}

func TestTeamSummary_FlagsAtRiskMembers(t *testing.T) {
	roster := &stubParticipantRepo{members: []*participant.Participant{
		{MemberID: 1, DisplayName: "alice", Active: true},
		{MemberID: 2, DisplayName: "bob", Active: true},
	}}
	goals := &stubGoalRepo{goals: []*goal.Goal{
		mustGoal(t, 1, "runs", goal.KindCount, goal.StyleIncremental, 3),
		mustGoal(t, 2, "read", goal.KindCount, goal.StyleIncremental, 2),
	}}
	progress := &stubProgressRepo{entries: []*goal.ProgressEntry{
		{MemberID: 1, WeekKey: testWeek, GoalName: "runs", Value: 3},
		{MemberID: 2, WeekKey: testWeek, GoalName: "read", Value: 1},
	}}
	streaks := &stubStreakRepo{state: &challenge.StreakState{Current: 4, Best: 7}}

	handler := NewGetTeamSummaryHandler(roster, goals, progress, streaks)

	summary, err := handler.Handle(context.Background(), GetTeamSummaryQuery{WeekKey: testWeek})
	require.NoError(t, err)

	require.Len(t, summary.Members, 2)
	assert.Equal(t, 1, summary.AtRiskCount)
	assert.False(t, summary.OnTrack)
	assert.Equal(t, 4, summary.Streak)
	assert.Equal(t, 7, summary.BestStreak)

	assert.False(t, summary.Members[0].AtRisk)
	assert.Equal(t, 1, summary.Members[0].PassedCount)
	assert.True(t, summary.Members[1].AtRisk)
}

func TestTeamSummary_ExcusedMemberSkipsStanding(t *testing.T) {
	roster := &stubParticipantRepo{members: []*participant.Participant{
		{MemberID: 1, DisplayName: "alice", Active: true, SkipWeek: testWeek},
	}}
	handler := NewGetTeamSummaryHandler(roster, &stubGoalRepo{}, &stubProgressRepo{}, &stubStreakRepo{})

	summary, err := handler.Handle(context.Background(), GetTeamSummaryQuery{WeekKey: testWeek})
	require.NoError(t, err)

	require.Len(t, summary.Members, 1)
	assert.True(t, summary.Members[0].Excused)
	assert.False(t, summary.Members[0].AtRisk)
	assert.True(t, summary.OnTrack)
}

func TestTeamSummary_ZeroGoalsMemberIsAtRisk(t *testing.T) {
	roster := &stubParticipantRepo{members: []*participant.Participant{
		{MemberID: 1, DisplayName: "alice", Active: true},
	}}
	handler := NewGetTeamSummaryHandler(roster, &stubGoalRepo{}, &stubProgressRepo{}, &stubStreakRepo{})

	summary, err := handler.Handle(context.Background(), GetTeamSummaryQuery{WeekKey: testWeek})
	require.NoError(t, err)

	assert.True(t, summary.Members[0].AtRisk)
	assert.Zero(t, summary.Members[0].GoalCount)
}

func TestPuzzleStandings_RanksAscendingWithTies(t *testing.T) {
	repo := &stubPuzzleRepo{records: []*puzzle.PlayerRecord{
		{MemberID: 1, Games: 5, Total: 12, Wins: 2},
		{MemberID: 2, Games: 5, Total: 9},
		{MemberID: 3, Games: 4, Total: 9},
		{MemberID: 4}, // never played, excluded
	}}
	handler := NewGetPuzzleStandingsHandler(repo, &stubPodiumRepo{})

	standings, err := handler.Handle(context.Background(), GetPuzzleStandingsQuery{})
	require.NoError(t, err)

	require.Len(t, standings.Standings, 3)
	assert.Equal(t, 1, standings.Standings[0].Rank)
	assert.Equal(t, 1, standings.Standings[1].Rank)
	assert.Equal(t, 3, standings.Standings[2].Rank)
	assert.Equal(t, int64(1), standings.Standings[2].MemberID)
	assert.Nil(t, standings.Podium)
}

func TestPuzzleStandings_IncludePodium(t *testing.T) {
	repo := &stubPuzzleRepo{}
	podiums := &stubPodiumRepo{podium: &puzzle.Podium{
		WeekKey: testWeek,
		Gold:    []puzzle.MemberID{2},
		Last:    []puzzle.MemberID{1},
	}}
	handler := NewGetPuzzleStandingsHandler(repo, podiums)

	standings, err := handler.Handle(context.Background(), GetPuzzleStandingsQuery{IncludePodium: true})
	require.NoError(t, err)

	require.NotNil(t, standings.Podium)
	assert.Equal(t, testWeek, standings.Podium.WeekKey)
	assert.Equal(t, []int64{2}, standings.Podium.Gold)
	assert.Equal(t, []int64{1}, standings.Podium.Last)
}

func TestPuzzleStandings_NoPodiumYetIsNotAnError(t *testing.T) {
	handler := NewGetPuzzleStandingsHandler(&stubPuzzleRepo{}, &stubPodiumRepo{})

	standings, err := handler.Handle(context.Background(), GetPuzzleStandingsQuery{IncludePodium: true})
	require.NoError(t, err)
	assert.Nil(t, standings.Podium)
}

func TestVerdictHistory_ReportsOutcomesAndStreak(t *testing.T) {
	verdicts := &stubVerdictRepo{verdicts: []*challenge.CycleVerdict{
		{
			WeekKey:     goal.WeekKey(testWeek),
			Outcome:     challenge.OutcomeFail,
			EvaluatedAt: time.Now(),
			Results: []challenge.MemberResult{
				{MemberID: 1},
				{MemberID: 2, NoGoals: true},
			},
		},
	}}
	streaks := &stubStreakRepo{state: &challenge.StreakState{Current: 0, Best: 6}}

	handler := NewGetVerdictHistoryHandler(verdicts, streaks)

	history, err := handler.Handle(context.Background(), GetVerdictHistoryQuery{})
	require.NoError(t, err)

	require.Len(t, history.Verdicts, 1)
	v := history.Verdicts[0]
	assert.Equal(t, testWeek, v.WeekKey)
	assert.False(t, v.TeamWon)
	assert.Equal(t, 2, v.MemberCount)
	assert.Contains(t, v.FailedMembers, int64(2))
	assert.Equal(t, 6, history.BestStreak)
}

func TestVerdictHistory_RejectsNegativeLimit(t *testing.T) {
	handler := NewGetVerdictHistoryHandler(&stubVerdictRepo{}, &stubStreakRepo{})

	_, err := handler.Handle(context.Background(), GetVerdictHistoryQuery{Limit: -1})
	assert.Error(t, err)
}
