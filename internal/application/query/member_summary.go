// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"
)

// goalCacheTTL bounds staleness of cached goal lists. Writes invalidate
// eagerly; the TTL only covers missed invalidations.
const goalCacheTTL = 10 * time.Minute

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER SUMMARY QUERY
// One member's goals and where they stand in the current cycle,
// including the most recent note they attached to a log entry.
// ══════════════════════════════════════════════════════════════════════════════

// GetMemberSummaryQuery contains the parameters for a member summary.
type GetMemberSummaryQuery struct {
	// MemberID is the member to summarize.
	MemberID int64

	// WeekKey is the cycle to report. Defaults to the current cycle.
	WeekKey string
}

// Validate checks the query parameters.
func (q *GetMemberSummaryQuery) Validate() error {
	if q.MemberID <= 0 {
		return errors.New("member_id is required")
	}
	if q.WeekKey == "" {
		q.WeekKey = timeutil.CycleKey(timeutil.Now())
	}
	return nil
}

// GoalStatusDTO is one goal's standing within the cycle.
type GoalStatusDTO struct {
	// Name - the goal's identifier.
	Name string `json:"name"`

	// Kind - "count" or "boolean".
	Kind string `json:"kind"`

	// Style - how the goal is logged.
	Style string `json:"style"`

	// Target - the weekly quota (count goals).
	Target int `json:"target"`

	// Unit - optional label for count goals.
	Unit string `json:"unit,omitempty"`

	// Value - the tracked total so far.
	Value int `json:"value"`

	// Done - the completion flag (boolean goals).
	Done bool `json:"done"`

	// Passed - whether the goal clears as of now.
	Passed bool `json:"passed"`
}

// MemberSummaryDTO is the full per-member view.
type MemberSummaryDTO struct {
	MemberID int64           `json:"member_id"`
	WeekKey  string          `json:"week_key"`
	Goals    []GoalStatusDTO `json:"goals"`

	// PassedCount - how many goals clear as of now.
	PassedCount int `json:"passed_count"`

	// OnTrack - true when every goal clears as of now.
	OnTrack bool `json:"on_track"`

	// LastNote - the most recent annotation this week, if any.
	LastNote string `json:"last_note,omitempty"`

	// HasNote - whether a note exists this week.
	HasNote bool `json:"has_note"`
}

// GetMemberSummaryHandler handles the member summary query.
type GetMemberSummaryHandler struct {
	goalRepo     goal.Repository
	progressRepo goal.ProgressRepository
	logRepo      goal.LogRepository
	cache        goal.Cache
}

// NewGetMemberSummaryHandler creates a new GetMemberSummaryHandler.
// The cache may be nil.
func NewGetMemberSummaryHandler(
	goalRepo goal.Repository,
	progressRepo goal.ProgressRepository,
	logRepo goal.LogRepository,
	cache goal.Cache,
) *GetMemberSummaryHandler {
	return &GetMemberSummaryHandler{
		goalRepo:     goalRepo,
		progressRepo: progressRepo,
		logRepo:      logRepo,
		cache:        cache,
	}
}

// Handle executes the member summary query.
func (h *GetMemberSummaryHandler) Handle(ctx context.Context, q GetMemberSummaryQuery) (*MemberSummaryDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("member_summary: %w", err)
	}

	memberID := goal.MemberID(q.MemberID)
	week := goal.WeekKey(q.WeekKey)

	goals, err := h.loadGoals(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("member_summary: failed to load goals: %w", err)
	}

	entries, err := h.progressRepo.ListByMemberWeek(ctx, memberID, week)
	if err != nil {
		return nil, fmt.Errorf("member_summary: failed to load progress: %w", err)
	}
	byName := make(map[string]*goal.ProgressEntry, len(entries))
	for _, e := range entries {
		byName[e.GoalName] = e
	}

	summary := &MemberSummaryDTO{
		MemberID: q.MemberID,
		WeekKey:  q.WeekKey,
		Goals:    make([]GoalStatusDTO, 0, len(goals)),
	}

	for _, g := range goals {
		entry := byName[g.Name]
		status := GoalStatusDTO{
			Name:   g.Name,
			Kind:   string(g.Kind),
			Style:  string(g.Style),
			Target: g.Target,
			Unit:   g.Unit,
			Passed: g.Passed(entry),
		}
		if entry != nil {
			status.Value = entry.Value
			status.Done = entry.Done
		}
		if status.Passed {
			summary.PassedCount++
		}
		summary.Goals = append(summary.Goals, status)
	}

	summary.OnTrack = len(goals) > 0 && summary.PassedCount == len(goals)

	note, ok, err := h.logRepo.LastNote(ctx, memberID, week)
	if err != nil {
		return nil, fmt.Errorf("member_summary: failed to load last note: %w", err)
	}
	summary.LastNote = note
	summary.HasNote = ok

	return summary, nil
}

// loadGoals serves the goal list from cache when possible.
func (h *GetMemberSummaryHandler) loadGoals(ctx context.Context, memberID goal.MemberID) ([]*goal.Goal, error) {
	if h.cache != nil {
		if cached, err := h.cache.GetMember(ctx, memberID); err == nil && cached != nil {
			return cached, nil
		}
	}

	goals, err := h.goalRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		_ = h.cache.SetMember(ctx, memberID, goals, goalCacheTTL)
	}
	return goals, nil
}
