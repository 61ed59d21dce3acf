package goal

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS STATE
// One row per (owner, cycle, goal-name). Created on the first log event
// of a cycle, mutated by later events in the same cycle, read-only once
// the cycle closes, and cleared at cycle reset. The goal definition
// itself is never touched by reset.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressEntry is one goal's tracked state for one cycle. Count goals
// use Value (running total or reported final); boolean goals use Done.
type ProgressEntry struct {
	MemberID  MemberID
	WeekKey   WeekKey
	GoalName  string
	Value     int
	Done      bool
	UpdatedAt time.Time
}

// ApplyDelta adds a signed delta to the value, clamping at zero.
// Returns the new value.
func (p *ProgressEntry) ApplyDelta(delta int) int {
	p.Value += delta
	if p.Value < 0 {
		p.Value = 0
	}
	p.UpdatedAt = time.Now().UTC()
	return p.Value
}

// SetValue overwrites the value, clamping at zero. Returns the new value.
func (p *ProgressEntry) SetValue(value int) int {
	if value < 0 {
		value = 0
	}
	p.Value = value
	p.UpdatedAt = time.Now().UTC()
	return p.Value
}

// MarkDone sets the completion flag. Marking twice is a no-op.
func (p *ProgressEntry) MarkDone() {
	p.Done = true
	p.UpdatedAt = time.Now().UTC()
}

// ClearDone removes the completion flag and reports whether it was set.
func (p *ProgressEntry) ClearDone() bool {
	was := p.Done
	p.Done = false
	p.UpdatedAt = time.Now().UTC()
	return was
}

// ══════════════════════════════════════════════════════════════════════════════
// LOG EVENTS
// Every member action is appended to an immutable log. Corrections are
// logged as new events, never by rewriting history. "Last note" queries
// rely on insertion order, not timestamps.
// ══════════════════════════════════════════════════════════════════════════════

// LogKind classifies a log event.
type LogKind string

const (
	// LogKindAdd - a delta was applied to an incremental goal.
	LogKindAdd LogKind = "incremental-add"
	// LogKindSet - an incremental total was overwritten.
	LogKindSet LogKind = "incremental-set"
	// LogKindFinal - a week-end value was reported.
	LogKindFinal LogKind = "final-set"
	// LogKindComplete - a boolean goal was marked done.
	LogKindComplete LogKind = "boolean-complete"
	// LogKindUndo - a completion mark was removed.
	LogKindUndo LogKind = "boolean-undo"
)

// IsValid checks that the log kind is known.
func (k LogKind) IsValid() bool {
	switch k {
	case LogKindAdd, LogKindSet, LogKindFinal, LogKindComplete, LogKindUndo:
		return true
	default:
		return false
	}
}

// LogEvent is one immutable entry in the activity log.
type LogEvent struct {
	// ID - internal unique identifier (UUID in string form).
	ID string

	// MemberID - who acted.
	MemberID MemberID

	// WeekKey - the cycle the action belongs to.
	WeekKey WeekKey

	// GoalName - which goal the action targeted.
	GoalName string

	// Kind - what happened.
	Kind LogKind

	// Amount - the delta or reported value. Zero for complete/undo.
	Amount int

	// Note - optional free-text annotation supplied by the member.
	Note string

	// OccurredAt - when the action happened (UTC).
	OccurredAt time.Time
}

// ErrInvalidLogKind - unknown log kind.
var ErrInvalidLogKind = errors.New("invalid log kind")

// NewLogEvent creates a log entry, validating its fields.
func NewLogEvent(id string, memberID MemberID, weekKey WeekKey, goalName string, kind LogKind, amount int, note string) (*LogEvent, error) {
	if id == "" {
		return nil, errors.New("log event id is required")
	}
	if !memberID.IsValid() {
		return nil, ErrInvalidMemberID
	}
	if !weekKey.IsValid() {
		return nil, ErrInvalidWeekKey
	}
	if strings.TrimSpace(goalName) == "" {
		return nil, ErrInvalidName
	}
	if !kind.IsValid() {
		return nil, ErrInvalidLogKind
	}

	return &LogEvent{
		ID:         id,
		MemberID:   memberID,
		WeekKey:    weekKey,
		GoalName:   strings.TrimSpace(goalName),
		Kind:       kind,
		Amount:     amount,
		Note:       strings.TrimSpace(note),
		OccurredAt: time.Now().UTC(),
	}, nil
}

// HasNote reports whether the member attached an annotation.
func (e *LogEvent) HasNote() bool {
	return e.Note != ""
}
