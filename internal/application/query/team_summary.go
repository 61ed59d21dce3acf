package query

import (
	"context"
	"fmt"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/challenge"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/participant"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEAM SUMMARY QUERY
// The whole roster's standing mid-cycle: who is on track, who is at
// risk, and the current streak. This is a preview, not a verdict - the
// authoritative pass/fail happens at the cycle boundary.
// ══════════════════════════════════════════════════════════════════════════════

// GetTeamSummaryQuery contains the parameters for a team summary.
type GetTeamSummaryQuery struct {
	// WeekKey is the cycle to report. Defaults to the current cycle.
	WeekKey string
}

// TeamMemberDTO is one member's standing within the team view.
type TeamMemberDTO struct {
	MemberID    int64  `json:"member_id"`
	DisplayName string `json:"display_name"`

	// Excused - the member sits this week out.
	Excused bool `json:"excused"`

	// GoalCount - how many goals the member has declared.
	GoalCount int `json:"goal_count"`

	// PassedCount - how many clear as of now.
	PassedCount int `json:"passed_count"`

	// AtRisk - the member would fail the team if the week ended now.
	AtRisk bool `json:"at_risk"`
}

// TeamSummaryDTO is the full team view.
type TeamSummaryDTO struct {
	WeekKey string          `json:"week_key"`
	Members []TeamMemberDTO `json:"members"`

	// AtRiskCount - members currently short of their goals.
	AtRiskCount int `json:"at_risk_count"`

	// OnTrack - true when nobody is at risk.
	OnTrack bool `json:"on_track"`

	// Streak - the team streak going into this cycle.
	Streak int `json:"streak"`

	// BestStreak - the best streak ever reached.
	BestStreak int `json:"best_streak"`
}

// GetTeamSummaryHandler handles the team summary query.
type GetTeamSummaryHandler struct {
	participantRepo participant.Repository
	goalRepo        goal.Repository
	progressRepo    goal.ProgressRepository
	streakRepo      challenge.StreakRepository
}

// NewGetTeamSummaryHandler creates a new GetTeamSummaryHandler.
func NewGetTeamSummaryHandler(
	participantRepo participant.Repository,
	goalRepo goal.Repository,
	progressRepo goal.ProgressRepository,
	streakRepo challenge.StreakRepository,
) *GetTeamSummaryHandler {
	return &GetTeamSummaryHandler{
		participantRepo: participantRepo,
		goalRepo:        goalRepo,
		progressRepo:    progressRepo,
		streakRepo:      streakRepo,
	}
}

// Handle executes the team summary query.
func (h *GetTeamSummaryHandler) Handle(ctx context.Context, q GetTeamSummaryQuery) (*TeamSummaryDTO, error) {
	week := q.WeekKey
	if week == "" {
		week = timeutil.CycleKey(timeutil.Now())
	}

	roster, err := h.participantRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("team_summary: failed to load roster: %w", err)
	}

	summary := &TeamSummaryDTO{
		WeekKey: week,
		Members: make([]TeamMemberDTO, 0, len(roster)),
	}

	for _, p := range roster {
		member := TeamMemberDTO{
			MemberID:    int64(p.MemberID),
			DisplayName: p.DisplayName,
			Excused:     !p.IsEvaluated(week),
		}

		if !member.Excused {
			if err := h.fillStanding(ctx, &member, goal.WeekKey(week)); err != nil {
				return nil, err
			}
			if member.AtRisk {
				summary.AtRiskCount++
			}
		}

		summary.Members = append(summary.Members, member)
	}

	summary.OnTrack = summary.AtRiskCount == 0

	streak, err := h.streakRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("team_summary: failed to load streak: %w", err)
	}
	summary.Streak = streak.Current
	summary.BestStreak = streak.Best

	return summary, nil
}

// fillStanding computes one member's mid-cycle pass counts. A member
// with no goals is always at risk: the evaluation policy fails them.
func (h *GetTeamSummaryHandler) fillStanding(ctx context.Context, member *TeamMemberDTO, week goal.WeekKey) error {
	memberID := goal.MemberID(member.MemberID)

	goals, err := h.goalRepo.ListByMember(ctx, memberID)
	if err != nil {
		return fmt.Errorf("team_summary: failed to load goals for %d: %w", member.MemberID, err)
	}
	member.GoalCount = len(goals)

	if len(goals) == 0 {
		member.AtRisk = true
		return nil
	}

	entries, err := h.progressRepo.ListByMemberWeek(ctx, memberID, week)
	if err != nil {
		return fmt.Errorf("team_summary: failed to load progress for %d: %w", member.MemberID, err)
	}
	byName := make(map[string]*goal.ProgressEntry, len(entries))
	for _, e := range entries {
		byName[e.GoalName] = e
	}

	for _, g := range goals {
		if g.Passed(byName[g.Name]) {
			member.PassedCount++
		}
	}
	member.AtRisk = member.PassedCount < len(goals)

	return nil
}
