package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/notification"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/puzzle"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLY DAILY PENALTY COMMAND
// Charges the miss penalty to every opted-in player who has not
// submitted a score for the day's puzzle. A one-shot skip marker for
// the date suppresses the whole pass and is consumed in the act.
// Players already penalized for the day are left alone, so a repeated
// run never double-charges.
// ══════════════════════════════════════════════════════════════════════════════

// ApplyDailyPenaltyCommand requests the penalty pass for one date.
type ApplyDailyPenaltyCommand struct {
	// Date is the calendar day to settle. Defaults to today.
	Date time.Time
}

// ApplyDailyPenaltyResult contains the outcome of a penalty pass.
type ApplyDailyPenaltyResult struct {
	// PuzzleIndex is the day's puzzle number.
	PuzzleIndex int

	// Skipped indicates a skip marker suppressed the pass.
	Skipped bool

	// Penalized lists members who were charged this pass.
	Penalized []int64
}

// ApplyDailyPenaltyHandler handles the ApplyDailyPenaltyCommand.
type ApplyDailyPenaltyHandler struct {
	puzzleRepo     puzzle.Repository
	skipStore      puzzle.SkipStore
	notifier       notification.Notifier
	eventPublisher shared.EventPublisher
}

// NewApplyDailyPenaltyHandler creates a new ApplyDailyPenaltyHandler.
// The notifier and publisher may be nil.
func NewApplyDailyPenaltyHandler(
	puzzleRepo puzzle.Repository,
	skipStore puzzle.SkipStore,
	notifier notification.Notifier,
	eventPublisher shared.EventPublisher,
) *ApplyDailyPenaltyHandler {
	return &ApplyDailyPenaltyHandler{
		puzzleRepo:     puzzleRepo,
		skipStore:      skipStore,
		notifier:       notifier,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the apply daily penalty command.
func (h *ApplyDailyPenaltyHandler) Handle(ctx context.Context, cmd ApplyDailyPenaltyCommand) (*ApplyDailyPenaltyResult, error) {
	date := cmd.Date
	if date.IsZero() {
		date = timeutil.Now()
	}

	index := timeutil.PuzzleIndex(date)
	if index < 0 {
		return nil, fmt.Errorf("apply_penalty: %w", puzzle.ErrInvalidPuzzleIndex)
	}

	result := &ApplyDailyPenaltyResult{PuzzleIndex: index}

	if h.skipStore != nil {
		skipped, err := h.skipStore.Consume(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("apply_penalty: failed to check skip marker: %w", err)
		}
		if skipped {
			result.Skipped = true
			return result, nil
		}
	}

	players, err := h.puzzleRepo.ListJoined(ctx)
	if err != nil {
		return nil, fmt.Errorf("apply_penalty: failed to load players: %w", err)
	}

	day := timeutil.FormatDateStr(date)
	for _, record := range players {
		if err := record.ApplyPenalty(index); err != nil {
			if errors.Is(err, puzzle.ErrAlreadyScored) {
				continue
			}
			return nil, fmt.Errorf("apply_penalty: member %s: %w", record.MemberID, err)
		}

		if err := h.puzzleRepo.Upsert(ctx, record); err != nil {
			return nil, fmt.Errorf("apply_penalty: failed to store record for %s: %w", record.MemberID, err)
		}

		result.Penalized = append(result.Penalized, int64(record.MemberID))

		if h.eventPublisher != nil {
			_ = h.eventPublisher.Publish(shared.NewPenaltyAppliedEvent(int64(record.MemberID), index, day))
		}
	}

	h.announce(ctx, result)

	return result, nil
}

// announce posts the penalty notice to the puzzle channel.
func (h *ApplyDailyPenaltyHandler) announce(ctx context.Context, result *ApplyDailyPenaltyResult) {
	if h.notifier == nil || len(result.Penalized) == 0 {
		return
	}

	ids := make([]string, len(result.Penalized))
	for i, id := range result.Penalized {
		ids[i] = fmt.Sprintf("%d", id)
	}

	text := fmt.Sprintf("Puzzle %d went unanswered by: %s. +%d each.",
		result.PuzzleIndex, strings.Join(ids, ", "), puzzle.MissPenalty)
	_, _ = h.notifier.Send(ctx, notification.ChannelPuzzle, text)
}
