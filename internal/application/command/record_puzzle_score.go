package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/puzzle"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD PUZZLE SCORE COMMAND
// Accepts a pasted share text or an explicit (index, score) pair.
// Re-submitting the same day replaces the prior score; the cumulative
// total never double-counts.
// ══════════════════════════════════════════════════════════════════════════════

// RecordPuzzleScoreCommand contains one day's puzzle result.
type RecordPuzzleScoreCommand struct {
	// MemberID is the submitting member.
	MemberID int64

	// ShareText is the pasted result block. When set, the puzzle index
	// and score are parsed out of it.
	ShareText string

	// PuzzleIndex is the day's puzzle number. Used when ShareText is empty.
	PuzzleIndex int

	// Score is the guess count, or the miss penalty for a failed board.
	// Used when ShareText is empty.
	Score int
}

// Validate validates the command.
func (c RecordPuzzleScoreCommand) Validate() error {
	if c.MemberID <= 0 {
		return errors.New("record_score: member_id is required")
	}
	if c.ShareText == "" && c.Score == 0 {
		return errors.New("record_score: share text or an explicit score is required")
	}
	return nil
}

// RecordPuzzleScoreResult contains the board state after a submission.
type RecordPuzzleScoreResult struct {
	// MemberID is the submitting member.
	MemberID int64

	// PuzzleIndex is the day the score landed on.
	PuzzleIndex int

	// Score is the recorded score.
	Score int

	// Resubmitted indicates a prior score for the day was replaced.
	Resubmitted bool

	// Total is the member's cumulative score for the open cycle.
	Total int
}

// RecordPuzzleScoreHandler handles the RecordPuzzleScoreCommand.
type RecordPuzzleScoreHandler struct {
	puzzleRepo     puzzle.Repository
	eventPublisher shared.EventPublisher
}

// NewRecordPuzzleScoreHandler creates a new RecordPuzzleScoreHandler.
func NewRecordPuzzleScoreHandler(puzzleRepo puzzle.Repository, eventPublisher shared.EventPublisher) *RecordPuzzleScoreHandler {
	return &RecordPuzzleScoreHandler{
		puzzleRepo:     puzzleRepo,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the record puzzle score command.
func (h *RecordPuzzleScoreHandler) Handle(ctx context.Context, cmd RecordPuzzleScoreCommand) (*RecordPuzzleScoreResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("record_score: validation failed: %w", err)
	}

	index := cmd.PuzzleIndex
	score := puzzle.Score(cmd.Score)

	if cmd.ShareText != "" {
		parsed, ok := puzzle.ParseShareText(cmd.ShareText)
		if !ok {
			return nil, fmt.Errorf("record_score: %w", shared.ErrMalformedResult)
		}
		index = parsed.PuzzleIndex
		score = parsed.Score
	}

	record, err := h.puzzleRepo.GetOrCreate(ctx, puzzle.MemberID(cmd.MemberID))
	if err != nil {
		return nil, fmt.Errorf("record_score: %w", err)
	}

	resubmitted, err := record.RecordScore(index, score)
	if err != nil {
		return nil, fmt.Errorf("record_score: %w", err)
	}

	if err := h.puzzleRepo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("record_score: failed to store record: %w", err)
	}

	if h.eventPublisher != nil {
		_ = h.eventPublisher.Publish(shared.NewScoreRecordedEvent(cmd.MemberID, index, int(score), resubmitted))
	}

	return &RecordPuzzleScoreResult{
		MemberID:    cmd.MemberID,
		PuzzleIndex: index,
		Score:       int(score),
		Resubmitted: resubmitted,
		Total:       record.Total,
	}, nil
}
