// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Goal events
	EventGoalSet        EventType = "goal.set"
	EventGoalRemoved    EventType = "goal.removed"
	EventProgressLogged EventType = "goal.progress_logged"
	EventProgressUndone EventType = "goal.progress_undone"
	EventGoalCompleted  EventType = "goal.completed"

	// Challenge events
	EventCycleEvaluated EventType = "challenge.cycle_evaluated"
	EventStreakExtended EventType = "challenge.streak_extended"
	EventStreakBroken   EventType = "challenge.streak_broken"
	EventCycleReset     EventType = "challenge.cycle_reset"

	// Puzzle events
	EventScoreRecorded     EventType = "puzzle.score_recorded"
	EventPenaltyApplied    EventType = "puzzle.penalty_applied"
	EventPuzzleCycleClosed EventType = "puzzle.cycle_closed"

	// Participant events
	EventParticipantJoined EventType = "participant.joined"
	EventParticipantLeft   EventType = "participant.left"
	EventWeekSkipped       EventType = "participant.week_skipped"

	// Notification events
	EventNotificationSent   EventType = "notification.sent"
	EventNotificationFailed EventType = "notification.failed"

	// System events
	EventBackupCompleted EventType = "system.backup_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Goal Events
// ═══════════════════════════════════════════════════════════════════════════

// ProgressLoggedEvent is emitted when a member logs progress against a goal.
type ProgressLoggedEvent struct {
	BaseEvent
	MemberID int64  `json:"member_id"`
	WeekKey  string `json:"week_key"`
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Note     string `json:"note,omitempty"`
}

// Payload implements Event interface.
func (e ProgressLoggedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id": e.MemberID,
		"week_key":  e.WeekKey,
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"note":      e.Note,
	}
}

// NewProgressLoggedEvent creates a new ProgressLoggedEvent.
func NewProgressLoggedEvent(memberID int64, weekKey string, amount, newTotal int, note string) ProgressLoggedEvent {
	return ProgressLoggedEvent{
		BaseEvent: NewBaseEvent(EventProgressLogged, weekKey),
		MemberID:  memberID,
		WeekKey:   weekKey,
		Amount:    amount,
		NewTotal:  newTotal,
		Note:      note,
	}
}

// GoalCompletedEvent is emitted when a boolean goal is marked done.
type GoalCompletedEvent struct {
	BaseEvent
	MemberID int64  `json:"member_id"`
	WeekKey  string `json:"week_key"`
	Note     string `json:"note,omitempty"`
}

// Payload implements Event interface.
func (e GoalCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id": e.MemberID,
		"week_key":  e.WeekKey,
		"note":      e.Note,
	}
}

// NewGoalCompletedEvent creates a new GoalCompletedEvent.
func NewGoalCompletedEvent(memberID int64, weekKey, note string) GoalCompletedEvent {
	return GoalCompletedEvent{
		BaseEvent: NewBaseEvent(EventGoalCompleted, weekKey),
		MemberID:  memberID,
		WeekKey:   weekKey,
		Note:      note,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Challenge Events
// ═══════════════════════════════════════════════════════════════════════════

// CycleEvaluatedEvent is emitted once the weekly verdict is decided.
type CycleEvaluatedEvent struct {
	BaseEvent
	WeekKey   string `json:"week_key"`
	TeamWon   bool   `json:"team_won"`
	Passed    int    `json:"passed"`
	Total     int    `json:"total"`
	NewStreak int    `json:"new_streak"`
}

// Payload implements Event interface.
func (e CycleEvaluatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"week_key":   e.WeekKey,
		"team_won":   e.TeamWon,
		"passed":     e.Passed,
		"total":      e.Total,
		"new_streak": e.NewStreak,
	}
}

// NewCycleEvaluatedEvent creates a new CycleEvaluatedEvent.
func NewCycleEvaluatedEvent(weekKey string, teamWon bool, passed, total, newStreak int) CycleEvaluatedEvent {
	return CycleEvaluatedEvent{
		BaseEvent: NewBaseEvent(EventCycleEvaluated, weekKey),
		WeekKey:   weekKey,
		TeamWon:   teamWon,
		Passed:    passed,
		Total:     total,
		NewStreak: newStreak,
	}
}

// CycleResetEvent is emitted when a new weekly cycle opens.
type CycleResetEvent struct {
	BaseEvent
	WeekKey string `json:"week_key"`
}

// Payload implements Event interface.
func (e CycleResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"week_key": e.WeekKey,
	}
}

// NewCycleResetEvent creates a new CycleResetEvent.
func NewCycleResetEvent(weekKey string) CycleResetEvent {
	return CycleResetEvent{
		BaseEvent: NewBaseEvent(EventCycleReset, weekKey),
		WeekKey:   weekKey,
	}
}

// StreakBrokenEvent is emitted when a lost week resets the team streak.
type StreakBrokenEvent struct {
	BaseEvent
	WeekKey        string `json:"week_key"`
	PreviousStreak int    `json:"previous_streak"`
	BestStreak     int    `json:"best_streak"`
}

// Payload implements Event interface.
func (e StreakBrokenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"week_key":        e.WeekKey,
		"previous_streak": e.PreviousStreak,
		"best_streak":     e.BestStreak,
	}
}

// NewStreakBrokenEvent creates a new StreakBrokenEvent.
func NewStreakBrokenEvent(weekKey string, previousStreak, bestStreak int) StreakBrokenEvent {
	return StreakBrokenEvent{
		BaseEvent:      NewBaseEvent(EventStreakBroken, weekKey),
		WeekKey:        weekKey,
		PreviousStreak: previousStreak,
		BestStreak:     bestStreak,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Puzzle Events
// ═══════════════════════════════════════════════════════════════════════════

// ScoreRecordedEvent is emitted when a puzzle result is recorded.
type ScoreRecordedEvent struct {
	BaseEvent
	MemberID    int64 `json:"member_id"`
	PuzzleIndex int   `json:"puzzle_index"`
	Score       int   `json:"score"`
	Resubmitted bool  `json:"resubmitted"`
}

// Payload implements Event interface.
func (e ScoreRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":    e.MemberID,
		"puzzle_index": e.PuzzleIndex,
		"score":        e.Score,
		"resubmitted":  e.Resubmitted,
	}
}

// NewScoreRecordedEvent creates a new ScoreRecordedEvent.
func NewScoreRecordedEvent(memberID int64, puzzleIndex, score int, resubmitted bool) ScoreRecordedEvent {
	return ScoreRecordedEvent{
		BaseEvent:   NewBaseEvent(EventScoreRecorded, MemberID(memberID).String()),
		MemberID:    memberID,
		PuzzleIndex: puzzleIndex,
		Score:       score,
		Resubmitted: resubmitted,
	}
}

// PenaltyAppliedEvent is emitted when a joined player misses a day.
type PenaltyAppliedEvent struct {
	BaseEvent
	MemberID    int64  `json:"member_id"`
	PuzzleIndex int    `json:"puzzle_index"`
	Day         string `json:"day"`
}

// Payload implements Event interface.
func (e PenaltyAppliedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":    e.MemberID,
		"puzzle_index": e.PuzzleIndex,
		"day":          e.Day,
	}
}

// NewPenaltyAppliedEvent creates a new PenaltyAppliedEvent.
func NewPenaltyAppliedEvent(memberID int64, puzzleIndex int, day string) PenaltyAppliedEvent {
	return PenaltyAppliedEvent{
		BaseEvent:   NewBaseEvent(EventPenaltyApplied, MemberID(memberID).String()),
		MemberID:    memberID,
		PuzzleIndex: puzzleIndex,
		Day:         day,
	}
}

// PuzzleCycleClosedEvent is emitted when the weekly leaderboard is settled.
type PuzzleCycleClosedEvent struct {
	BaseEvent
	WeekKey   string  `json:"week_key"`
	GoldIDs   []int64 `json:"gold_ids"`
	SilverIDs []int64 `json:"silver_ids"`
	BronzeIDs []int64 `json:"bronze_ids"`
	LastIDs   []int64 `json:"last_ids"`
}

// Payload implements Event interface.
func (e PuzzleCycleClosedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"week_key":   e.WeekKey,
		"gold_ids":   e.GoldIDs,
		"silver_ids": e.SilverIDs,
		"bronze_ids": e.BronzeIDs,
		"last_ids":   e.LastIDs,
	}
}

// NewPuzzleCycleClosedEvent creates a new PuzzleCycleClosedEvent.
func NewPuzzleCycleClosedEvent(weekKey string, gold, silver, bronze, last []int64) PuzzleCycleClosedEvent {
	return PuzzleCycleClosedEvent{
		BaseEvent: NewBaseEvent(EventPuzzleCycleClosed, weekKey),
		WeekKey:   weekKey,
		GoldIDs:   gold,
		SilverIDs: silver,
		BronzeIDs: bronze,
		LastIDs:   last,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Participant Events
// ═══════════════════════════════════════════════════════════════════════════

// ParticipantJoinedEvent is emitted when a member opts into the challenge.
type ParticipantJoinedEvent struct {
	BaseEvent
	MemberID    int64  `json:"member_id"`
	DisplayName string `json:"display_name"`
}

// Payload implements Event interface.
func (e ParticipantJoinedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"member_id":    e.MemberID,
		"display_name": e.DisplayName,
	}
}

// NewParticipantJoinedEvent creates a new ParticipantJoinedEvent.
func NewParticipantJoinedEvent(memberID int64, displayName string) ParticipantJoinedEvent {
	return ParticipantJoinedEvent{
		BaseEvent:   NewBaseEvent(EventParticipantJoined, MemberID(memberID).String()),
		MemberID:    memberID,
		DisplayName: displayName,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
