package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS LOGGING COMMANDS
// Every accepted command mutates the current cycle's tracking state and
// appends one immutable ledger event. Corrections arrive as new events,
// never as history rewrites.
// ══════════════════════════════════════════════════════════════════════════════

// LogIncrementalCommand logs progress against an incremental count goal.
// Exactly one of Delta or SetTo must be provided.
type LogIncrementalCommand struct {
	// MemberID is the acting member.
	MemberID int64

	// GoalName is the goal being logged against.
	GoalName string

	// Delta is a signed adjustment to the running total.
	Delta *int

	// SetTo overwrites the running total.
	SetTo *int

	// Note is an optional free-text annotation.
	Note string

	// WeekKey is the cycle to log into. Defaults to the current cycle.
	WeekKey string
}

// Validate validates the command.
func (c LogIncrementalCommand) Validate() error {
	if c.MemberID <= 0 {
		return errors.New("log_incremental: member_id is required")
	}
	if c.GoalName == "" {
		return errors.New("log_incremental: goal name is required")
	}
	if (c.Delta == nil) == (c.SetTo == nil) {
		return fmt.Errorf("log_incremental: exactly one of delta or set_to is required: %w", shared.ErrInvalidInput)
	}
	return nil
}

// LogFinalCommand reports the week-end value for a weekly-final count goal.
type LogFinalCommand struct {
	MemberID int64
	GoalName string

	// Value is the reported final total for the week.
	Value int

	Note    string
	WeekKey string
}

// Validate validates the command.
func (c LogFinalCommand) Validate() error {
	if c.MemberID <= 0 {
		return errors.New("log_final: member_id is required")
	}
	if c.GoalName == "" {
		return errors.New("log_final: goal name is required")
	}
	return nil
}

// CompleteGoalCommand marks a boolean goal done for the cycle.
type CompleteGoalCommand struct {
	MemberID int64
	GoalName string
	Note     string
	WeekKey  string
}

// Validate validates the command.
func (c CompleteGoalCommand) Validate() error {
	if c.MemberID <= 0 {
		return errors.New("complete_goal: member_id is required")
	}
	if c.GoalName == "" {
		return errors.New("complete_goal: goal name is required")
	}
	return nil
}

// UndoCompleteCommand removes a boolean goal's completion mark.
type UndoCompleteCommand struct {
	MemberID int64
	GoalName string
	Note     string
	WeekKey  string
}

// Validate validates the command.
func (c UndoCompleteCommand) Validate() error {
	if c.MemberID <= 0 {
		return errors.New("undo_complete: member_id is required")
	}
	if c.GoalName == "" {
		return errors.New("undo_complete: goal name is required")
	}
	return nil
}

// LogProgressResult contains the state after a logging command.
type LogProgressResult struct {
	// MemberID is the acting member.
	MemberID int64

	// GoalName is the goal that was logged against.
	GoalName string

	// WeekKey is the cycle the event landed in.
	WeekKey string

	// NewValue is the tracked total after the mutation (count goals).
	NewValue int

	// Done is the completion flag after the mutation (boolean goals).
	Done bool

	// Undone indicates an undo actually cleared a mark.
	Undone bool

	// TargetReached indicates the count goal's quota is now met.
	TargetReached bool

	// Event is the ledger entry that was appended, nil if none.
	Event *goal.LogEvent
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// LogProgressHandler handles all four progress logging commands.
type LogProgressHandler struct {
	goalRepo       goal.Repository
	progressRepo   goal.ProgressRepository
	logRepo        goal.LogRepository
	eventPublisher shared.EventPublisher
}

// NewLogProgressHandler creates a new LogProgressHandler.
func NewLogProgressHandler(
	goalRepo goal.Repository,
	progressRepo goal.ProgressRepository,
	logRepo goal.LogRepository,
	eventPublisher shared.EventPublisher,
) *LogProgressHandler {
	return &LogProgressHandler{
		goalRepo:       goalRepo,
		progressRepo:   progressRepo,
		logRepo:        logRepo,
		eventPublisher: eventPublisher,
	}
}

// HandleIncremental executes a delta or overwrite against an incremental goal.
func (h *LogProgressHandler) HandleIncremental(ctx context.Context, cmd LogIncrementalCommand) (*LogProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("log_incremental: validation failed: %w", err)
	}

	memberID := goal.MemberID(cmd.MemberID)
	week := h.resolveWeek(cmd.WeekKey)

	g, err := h.goalRepo.Get(ctx, memberID, cmd.GoalName)
	if err != nil {
		return nil, fmt.Errorf("log_incremental: %w", err)
	}
	if !g.AcceptsIncrements() {
		return nil, fmt.Errorf("log_incremental: goal %q: %w", g.Name, goal.ErrWrongKind)
	}

	var (
		newValue int
		kind     goal.LogKind
		amount   int
	)
	switch {
	case cmd.Delta != nil:
		kind = goal.LogKindAdd
		amount = *cmd.Delta
		newValue, err = h.progressRepo.AddDelta(ctx, memberID, week, g.Name, amount)
	default:
		kind = goal.LogKindSet
		amount = *cmd.SetTo
		newValue, err = h.progressRepo.SetValue(ctx, memberID, week, g.Name, amount)
	}
	if err != nil {
		return nil, fmt.Errorf("log_incremental: failed to update progress: %w", err)
	}

	event, err := h.appendLog(ctx, memberID, week, g.Name, kind, amount, cmd.Note)
	if err != nil {
		return nil, fmt.Errorf("log_incremental: %w", err)
	}

	h.publish(shared.NewProgressLoggedEvent(cmd.MemberID, week.String(), amount, newValue, cmd.Note))

	return &LogProgressResult{
		MemberID:      cmd.MemberID,
		GoalName:      g.Name,
		WeekKey:       week.String(),
		NewValue:      newValue,
		TargetReached: newValue >= g.Target,
		Event:         event,
	}, nil
}

// HandleFinal executes a week-end report against a weekly-final goal.
func (h *LogProgressHandler) HandleFinal(ctx context.Context, cmd LogFinalCommand) (*LogProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("log_final: validation failed: %w", err)
	}

	memberID := goal.MemberID(cmd.MemberID)
	week := h.resolveWeek(cmd.WeekKey)

	g, err := h.goalRepo.Get(ctx, memberID, cmd.GoalName)
	if err != nil {
		return nil, fmt.Errorf("log_final: %w", err)
	}
	if !g.AcceptsFinal() {
		return nil, fmt.Errorf("log_final: goal %q: %w", g.Name, goal.ErrWrongKind)
	}

	newValue, err := h.progressRepo.SetValue(ctx, memberID, week, g.Name, cmd.Value)
	if err != nil {
		return nil, fmt.Errorf("log_final: failed to update progress: %w", err)
	}

	event, err := h.appendLog(ctx, memberID, week, g.Name, goal.LogKindFinal, cmd.Value, cmd.Note)
	if err != nil {
		return nil, fmt.Errorf("log_final: %w", err)
	}

	h.publish(shared.NewProgressLoggedEvent(cmd.MemberID, week.String(), cmd.Value, newValue, cmd.Note))

	return &LogProgressResult{
		MemberID:      cmd.MemberID,
		GoalName:      g.Name,
		WeekKey:       week.String(),
		NewValue:      newValue,
		TargetReached: newValue >= g.Target,
		Event:         event,
	}, nil
}

// HandleComplete marks a boolean goal done for the cycle.
func (h *LogProgressHandler) HandleComplete(ctx context.Context, cmd CompleteGoalCommand) (*LogProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("complete_goal: validation failed: %w", err)
	}

	memberID := goal.MemberID(cmd.MemberID)
	week := h.resolveWeek(cmd.WeekKey)

	g, err := h.goalRepo.Get(ctx, memberID, cmd.GoalName)
	if err != nil {
		return nil, fmt.Errorf("complete_goal: %w", err)
	}
	if !g.AcceptsCompletion() {
		return nil, fmt.Errorf("complete_goal: goal %q: %w", g.Name, goal.ErrWrongKind)
	}

	if err := h.progressRepo.SetDone(ctx, memberID, week, g.Name); err != nil {
		return nil, fmt.Errorf("complete_goal: failed to mark done: %w", err)
	}

	event, err := h.appendLog(ctx, memberID, week, g.Name, goal.LogKindComplete, 0, cmd.Note)
	if err != nil {
		return nil, fmt.Errorf("complete_goal: %w", err)
	}

	h.publish(shared.NewGoalCompletedEvent(cmd.MemberID, week.String(), cmd.Note))

	return &LogProgressResult{
		MemberID: cmd.MemberID,
		GoalName: g.Name,
		WeekKey:  week.String(),
		Done:     true,
		Event:    event,
	}, nil
}

// HandleUndo removes a boolean goal's completion mark. If the mark was
// never set, nothing is appended to the ledger.
func (h *LogProgressHandler) HandleUndo(ctx context.Context, cmd UndoCompleteCommand) (*LogProgressResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("undo_complete: validation failed: %w", err)
	}

	memberID := goal.MemberID(cmd.MemberID)
	week := h.resolveWeek(cmd.WeekKey)

	g, err := h.goalRepo.Get(ctx, memberID, cmd.GoalName)
	if err != nil {
		return nil, fmt.Errorf("undo_complete: %w", err)
	}
	if !g.AcceptsCompletion() {
		return nil, fmt.Errorf("undo_complete: goal %q: %w", g.Name, goal.ErrWrongKind)
	}

	cleared, err := h.progressRepo.ClearDone(ctx, memberID, week, g.Name)
	if err != nil {
		return nil, fmt.Errorf("undo_complete: failed to clear mark: %w", err)
	}

	result := &LogProgressResult{
		MemberID: cmd.MemberID,
		GoalName: g.Name,
		WeekKey:  week.String(),
		Undone:   cleared,
	}

	if cleared {
		event, err := h.appendLog(ctx, memberID, week, g.Name, goal.LogKindUndo, 0, cmd.Note)
		if err != nil {
			return nil, fmt.Errorf("undo_complete: %w", err)
		}
		result.Event = event
	}

	return result, nil
}

// resolveWeek maps an optional key to the current cycle.
func (h *LogProgressHandler) resolveWeek(key string) goal.WeekKey {
	if key != "" {
		return goal.WeekKey(key)
	}
	return goal.WeekKey(timeutil.CycleKey(timeutil.Now()))
}

// appendLog writes one ledger entry for the mutation just applied.
func (h *LogProgressHandler) appendLog(
	ctx context.Context,
	memberID goal.MemberID,
	week goal.WeekKey,
	goalName string,
	kind goal.LogKind,
	amount int,
	note string,
) (*goal.LogEvent, error) {
	event, err := goal.NewLogEvent(uuid.NewString(), memberID, week, goalName, kind, amount, note)
	if err != nil {
		return nil, fmt.Errorf("failed to build ledger event: %w", err)
	}
	if err := h.logRepo.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to append ledger event: %w", err)
	}
	return event, nil
}

func (h *LogProgressHandler) publish(event shared.Event) {
	if h.eventPublisher == nil {
		return
	}
	_ = h.eventPublisher.Publish(event)
}
