package command

import (
	"context"
	"fmt"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/participant"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET CYCLE COMMAND
// Opens a new week: clears its per-cycle tracking state and consumes the
// excuses that covered the week that just finished. An excuse for the
// opening week (or any later one) is still pending - its evaluation has
// not happened yet - so it survives the reset untouched. Goal
// definitions, the ledger, verdicts and the streak are untouched.
// Deleting an already empty week is a no-op, so repeating a reset is
// harmless; the scheduler still guards it with a watermark so the
// kickoff announcement fires once.
// ══════════════════════════════════════════════════════════════════════════════

// ResetCycleCommand requests the opening of one cycle.
type ResetCycleCommand struct {
	// WeekKey is the Monday of the cycle to open. Defaults to the
	// current cycle.
	WeekKey string
}

// ResetCycleResult contains the outcome of a reset.
type ResetCycleResult struct {
	// WeekKey is the cycle that was opened.
	WeekKey string

	// FinishedWeek is the cycle before WeekKey, whose spent excuses
	// were consumed.
	FinishedWeek string

	// ConsumedSkips lists members whose excuse for the finished week
	// was consumed.
	ConsumedSkips []int64
}

// ResetCycleHandler handles the ResetCycleCommand.
type ResetCycleHandler struct {
	progressRepo    goal.ProgressRepository
	participantRepo participant.Repository
	eventPublisher  shared.EventPublisher
}

// NewResetCycleHandler creates a new ResetCycleHandler.
func NewResetCycleHandler(
	progressRepo goal.ProgressRepository,
	participantRepo participant.Repository,
	eventPublisher shared.EventPublisher,
) *ResetCycleHandler {
	return &ResetCycleHandler{
		progressRepo:    progressRepo,
		participantRepo: participantRepo,
		eventPublisher:  eventPublisher,
	}
}

// Handle executes the reset cycle command.
func (h *ResetCycleHandler) Handle(ctx context.Context, cmd ResetCycleCommand) (*ResetCycleResult, error) {
	week := cmd.WeekKey
	if week == "" {
		week = timeutil.CycleKey(timeutil.Now())
	}
	monday, err := timeutil.ParseCycleKey(week)
	if err != nil {
		return nil, fmt.Errorf("reset_cycle: %w", err)
	}
	finished := timeutil.PrevCycleKey(monday)

	if err := h.progressRepo.ResetWeek(ctx, goal.WeekKey(week)); err != nil {
		return nil, fmt.Errorf("reset_cycle: failed to clear progress: %w", err)
	}

	// Spent excuses belong to the week that just closed; an excuse for
	// the opening week still has its evaluation ahead of it.
	consumed, err := h.consumeSkips(ctx, finished)
	if err != nil {
		return nil, err
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.Publish(shared.NewCycleResetEvent(week))
	}

	return &ResetCycleResult{WeekKey: week, FinishedWeek: finished, ConsumedSkips: consumed}, nil
}

// consumeSkips clears excuses that covered the finished week.
func (h *ResetCycleHandler) consumeSkips(ctx context.Context, week string) ([]int64, error) {
	roster, err := h.participantRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset_cycle: failed to load roster: %w", err)
	}

	var consumed []int64
	for _, p := range roster {
		if !p.ConsumeSkip(week) {
			continue
		}
		if err := h.participantRepo.Upsert(ctx, p); err != nil {
			return nil, fmt.Errorf("reset_cycle: failed to store participant %s: %w", p.MemberID, err)
		}
		consumed = append(consumed, int64(p.MemberID))
	}
	return consumed, nil
}
