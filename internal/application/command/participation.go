package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/participant"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/puzzle"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPATION COMMANDS
// Roster membership for the weekly challenge and opt-in for the daily
// puzzle penalty. Both are explicit and reversible; leaving keeps
// history intact.
// ══════════════════════════════════════════════════════════════════════════════

// JoinChallengeCommand enrolls a member in the weekly challenge.
type JoinChallengeCommand struct {
	MemberID    int64
	DisplayName string
}

// Validate validates the command.
func (c JoinChallengeCommand) Validate() error {
	if c.MemberID <= 0 {
		return errors.New("join_challenge: member_id is required")
	}
	if c.DisplayName == "" {
		return errors.New("join_challenge: display_name is required")
	}
	return nil
}

// LeaveChallengeCommand withdraws a member from the weekly challenge.
type LeaveChallengeCommand struct {
	MemberID int64
}

// SkipWeekCommand excuses a member from one week's evaluation.
type SkipWeekCommand struct {
	MemberID int64

	// WeekKey is the Monday of the week to sit out. Defaults to the
	// current cycle.
	WeekKey string
}

// JoinPuzzleCommand opts a member into the daily puzzle penalty.
type JoinPuzzleCommand struct {
	MemberID int64
}

// LeavePuzzleCommand opts a member out of the daily puzzle penalty.
type LeavePuzzleCommand struct {
	MemberID int64
}

// ParticipationResult reports the roster state after a command.
type ParticipationResult struct {
	MemberID int64

	// Rejoined indicates an inactive member was reactivated rather
	// than newly enrolled.
	Rejoined bool

	// SkipWeek is the pending excused week, empty if none.
	SkipWeek string
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ParticipationHandler handles roster and puzzle opt-in commands.
type ParticipationHandler struct {
	participantRepo participant.Repository
	puzzleRepo      puzzle.Repository
	eventPublisher  shared.EventPublisher
}

// NewParticipationHandler creates a new ParticipationHandler.
func NewParticipationHandler(
	participantRepo participant.Repository,
	puzzleRepo puzzle.Repository,
	eventPublisher shared.EventPublisher,
) *ParticipationHandler {
	return &ParticipationHandler{
		participantRepo: participantRepo,
		puzzleRepo:      puzzleRepo,
		eventPublisher:  eventPublisher,
	}
}

// HandleJoin enrolls or reactivates a challenge member. Idempotent for
// active members: the display name is refreshed, nothing else changes.
func (h *ParticipationHandler) HandleJoin(ctx context.Context, cmd JoinChallengeCommand) (*ParticipationResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("join_challenge: validation failed: %w", err)
	}

	memberID := participant.MemberID(cmd.MemberID)

	existing, err := h.participantRepo.Get(ctx, memberID)
	switch {
	case err == nil:
		rejoined := !existing.Active
		existing.Rejoin(cmd.DisplayName)
		if err := h.participantRepo.Upsert(ctx, existing); err != nil {
			return nil, fmt.Errorf("join_challenge: failed to store participant: %w", err)
		}
		return &ParticipationResult{MemberID: cmd.MemberID, Rejoined: rejoined}, nil

	case errors.Is(err, participant.ErrNotFound):
		p, err := participant.NewParticipant(memberID, cmd.DisplayName)
		if err != nil {
			return nil, fmt.Errorf("join_challenge: %w", err)
		}
		if err := h.participantRepo.Upsert(ctx, p); err != nil {
			return nil, fmt.Errorf("join_challenge: failed to store participant: %w", err)
		}
		if h.eventPublisher != nil {
			_ = h.eventPublisher.Publish(shared.NewParticipantJoinedEvent(cmd.MemberID, p.DisplayName))
		}
		return &ParticipationResult{MemberID: cmd.MemberID}, nil

	default:
		return nil, fmt.Errorf("join_challenge: failed to load participant: %w", err)
	}
}

// HandleLeave withdraws the member from the challenge.
func (h *ParticipationHandler) HandleLeave(ctx context.Context, cmd LeaveChallengeCommand) (*ParticipationResult, error) {
	if cmd.MemberID <= 0 {
		return nil, errors.New("leave_challenge: member_id is required")
	}

	p, err := h.participantRepo.Get(ctx, participant.MemberID(cmd.MemberID))
	if err != nil {
		return nil, fmt.Errorf("leave_challenge: %w", err)
	}

	if err := p.Leave(); err != nil {
		return nil, fmt.Errorf("leave_challenge: %w", err)
	}

	if err := h.participantRepo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("leave_challenge: failed to store participant: %w", err)
	}

	return &ParticipationResult{MemberID: cmd.MemberID}, nil
}

// HandleSkipWeek excuses the member from one week's verdict. A pending
// excuse for another week is replaced.
func (h *ParticipationHandler) HandleSkipWeek(ctx context.Context, cmd SkipWeekCommand) (*ParticipationResult, error) {
	if cmd.MemberID <= 0 {
		return nil, errors.New("skip_week: member_id is required")
	}

	week := cmd.WeekKey
	if week == "" {
		week = timeutil.CycleKey(timeutil.Now())
	}
	if _, err := timeutil.ParseCycleKey(week); err != nil {
		return nil, fmt.Errorf("skip_week: %w", err)
	}

	p, err := h.participantRepo.Get(ctx, participant.MemberID(cmd.MemberID))
	if err != nil {
		return nil, fmt.Errorf("skip_week: %w", err)
	}
	if !p.Active {
		return nil, fmt.Errorf("skip_week: %w", participant.ErrNotActive)
	}

	p.ExcuseWeek(week)

	if err := h.participantRepo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("skip_week: failed to store participant: %w", err)
	}

	return &ParticipationResult{MemberID: cmd.MemberID, SkipWeek: week}, nil
}

// HandleJoinPuzzle opts the member into the daily penalty. Idempotent.
func (h *ParticipationHandler) HandleJoinPuzzle(ctx context.Context, cmd JoinPuzzleCommand) (*ParticipationResult, error) {
	if cmd.MemberID <= 0 {
		return nil, errors.New("join_puzzle: member_id is required")
	}

	record, err := h.puzzleRepo.GetOrCreate(ctx, puzzle.MemberID(cmd.MemberID))
	if err != nil {
		return nil, fmt.Errorf("join_puzzle: %w", err)
	}

	record.Join()

	if err := h.puzzleRepo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("join_puzzle: failed to store record: %w", err)
	}

	return &ParticipationResult{MemberID: cmd.MemberID}, nil
}

// HandleLeavePuzzle opts the member out of the daily penalty. Scores
// already on the board stay there.
func (h *ParticipationHandler) HandleLeavePuzzle(ctx context.Context, cmd LeavePuzzleCommand) (*ParticipationResult, error) {
	if cmd.MemberID <= 0 {
		return nil, errors.New("leave_puzzle: member_id is required")
	}

	record, err := h.puzzleRepo.Get(ctx, puzzle.MemberID(cmd.MemberID))
	if err != nil {
		return nil, fmt.Errorf("leave_puzzle: %w", err)
	}

	record.Leave()

	if err := h.puzzleRepo.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("leave_puzzle: failed to store record: %w", err)
	}

	return &ParticipationResult{MemberID: cmd.MemberID}, nil
}
