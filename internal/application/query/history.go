package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/challenge"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
)

// ══════════════════════════════════════════════════════════════════════════════
// HISTORY QUERIES
// Past verdicts and one member's activity log for a cycle.
// ══════════════════════════════════════════════════════════════════════════════

// GetVerdictHistoryQuery contains the parameters for the verdict history.
type GetVerdictHistoryQuery struct {
	// Limit - how many recent cycles to return (default 10, max 52).
	Limit int
}

// Validate checks the query parameters.
func (q *GetVerdictHistoryQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 10
	}
	if q.Limit > 52 {
		q.Limit = 52
	}
	return nil
}

// VerdictDTO is one settled cycle's outcome.
type VerdictDTO struct {
	WeekKey string `json:"week_key"`
	TeamWon bool   `json:"team_won"`

	// PassedCount - members who cleared all goals.
	PassedCount int `json:"passed_count"`

	// MemberCount - members evaluated that week.
	MemberCount int `json:"member_count"`

	// FailedMembers - who missed, empty on a win.
	FailedMembers []int64 `json:"failed_members,omitempty"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}

// VerdictHistoryDTO is the verdict history view.
type VerdictHistoryDTO struct {
	Verdicts []VerdictDTO `json:"verdicts"`

	// Streak - the current team streak.
	Streak int `json:"streak"`

	// BestStreak - the best streak ever reached.
	BestStreak int `json:"best_streak"`
}

// GetVerdictHistoryHandler handles the verdict history query.
type GetVerdictHistoryHandler struct {
	verdictRepo challenge.VerdictRepository
	streakRepo  challenge.StreakRepository
}

// NewGetVerdictHistoryHandler creates a new GetVerdictHistoryHandler.
func NewGetVerdictHistoryHandler(verdictRepo challenge.VerdictRepository, streakRepo challenge.StreakRepository) *GetVerdictHistoryHandler {
	return &GetVerdictHistoryHandler{
		verdictRepo: verdictRepo,
		streakRepo:  streakRepo,
	}
}

// Handle executes the verdict history query.
func (h *GetVerdictHistoryHandler) Handle(ctx context.Context, q GetVerdictHistoryQuery) (*VerdictHistoryDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("verdict_history: %w", err)
	}

	verdicts, err := h.verdictRepo.ListRecent(ctx, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("verdict_history: failed to load verdicts: %w", err)
	}

	result := &VerdictHistoryDTO{
		Verdicts: make([]VerdictDTO, 0, len(verdicts)),
	}

	for _, v := range verdicts {
		dto := VerdictDTO{
			WeekKey:     v.WeekKey.String(),
			TeamWon:     v.TeamWon(),
			PassedCount: v.PassedCount(),
			MemberCount: len(v.Results),
			EvaluatedAt: v.EvaluatedAt,
		}
		for _, m := range v.FailedMembers() {
			dto.FailedMembers = append(dto.FailedMembers, int64(m))
		}
		result.Verdicts = append(result.Verdicts, dto)
	}

	streak, err := h.streakRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("verdict_history: failed to load streak: %w", err)
	}
	result.Streak = streak.Current
	result.BestStreak = streak.Best

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY LOG QUERY
// ══════════════════════════════════════════════════════════════════════════════

// GetActivityLogQuery contains the parameters for one member's log view.
type GetActivityLogQuery struct {
	MemberID int64
	WeekKey  string
}

// LogEntryDTO is one ledger event.
type LogEntryDTO struct {
	GoalName   string    `json:"goal_name"`
	Kind       string    `json:"kind"`
	Amount     int       `json:"amount"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ActivityLogDTO is the log view for one member and cycle.
type ActivityLogDTO struct {
	MemberID int64         `json:"member_id"`
	WeekKey  string        `json:"week_key"`
	Entries  []LogEntryDTO `json:"entries"`
}

// GetActivityLogHandler handles the activity log query.
type GetActivityLogHandler struct {
	logRepo goal.LogRepository
}

// NewGetActivityLogHandler creates a new GetActivityLogHandler.
func NewGetActivityLogHandler(logRepo goal.LogRepository) *GetActivityLogHandler {
	return &GetActivityLogHandler{logRepo: logRepo}
}

// Handle executes the activity log query.
func (h *GetActivityLogHandler) Handle(ctx context.Context, q GetActivityLogQuery) (*ActivityLogDTO, error) {
	if q.MemberID <= 0 {
		return nil, errors.New("activity_log: member_id is required")
	}
	week := goal.WeekKey(q.WeekKey)
	if !week.IsValid() {
		return nil, fmt.Errorf("activity_log: %w", goal.ErrInvalidWeekKey)
	}

	events, err := h.logRepo.ListByMemberWeek(ctx, goal.MemberID(q.MemberID), week)
	if err != nil {
		return nil, fmt.Errorf("activity_log: failed to load events: %w", err)
	}

	result := &ActivityLogDTO{
		MemberID: q.MemberID,
		WeekKey:  q.WeekKey,
		Entries:  make([]LogEntryDTO, 0, len(events)),
	}
	for _, e := range events {
		result.Entries = append(result.Entries, LogEntryDTO{
			GoalName:   e.GoalName,
			Kind:       string(e.Kind),
			Amount:     e.Amount,
			Note:       e.Note,
			OccurredAt: e.OccurredAt,
		})
	}

	return result, nil
}
