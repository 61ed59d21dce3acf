package goal

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the storage contract. Implementations live in
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines storage operations for goal definitions.
type Repository interface {
	// Upsert declares the goal or replaces an existing one with the
	// same (owner, name) identity.
	Upsert(ctx context.Context, g *Goal) error

	// Get returns the owner's goal with the given name.
	// Returns ErrGoalNotFound if none exists.
	Get(ctx context.Context, memberID MemberID, name string) (*Goal, error)

	// ListByMember returns all goals the member has declared.
	ListByMember(ctx context.Context, memberID MemberID) ([]*Goal, error)

	// ListAll returns every declared goal, grouped by owner in the
	// returned order.
	ListAll(ctx context.Context) ([]*Goal, error)

	// Delete removes the goal definition. Historical progress rows
	// and log events are untouched.
	// Returns ErrGoalNotFound if none exists.
	Delete(ctx context.Context, memberID MemberID, name string) error

	// CountByMember returns how many goals the member has declared.
	CountByMember(ctx context.Context, memberID MemberID) (int, error)
}

// ProgressRepository defines storage for per-cycle tracking state.
// All writes are atomic upserts by (owner, cycle, goal-name); the store
// is the concurrency control.
type ProgressRepository interface {
	// AddDelta applies a signed delta to the entry's value, clamping at
	// zero, creating the row on first use. Returns the new value.
	AddDelta(ctx context.Context, memberID MemberID, week WeekKey, goalName string, delta int) (int, error)

	// SetValue overwrites the entry's value, clamping at zero, creating
	// the row on first use. Returns the stored value.
	SetValue(ctx context.Context, memberID MemberID, week WeekKey, goalName string, value int) (int, error)

	// SetDone records the boolean goal as complete. Idempotent.
	SetDone(ctx context.Context, memberID MemberID, week WeekKey, goalName string) error

	// ClearDone removes the completion flag. Returns true if a flag
	// was actually cleared.
	ClearDone(ctx context.Context, memberID MemberID, week WeekKey, goalName string) (bool, error)

	// Get returns the entry for one goal in one cycle, or nil if no
	// log event has created it yet.
	Get(ctx context.Context, memberID MemberID, week WeekKey, goalName string) (*ProgressEntry, error)

	// ListByWeek returns all entries recorded for the cycle.
	ListByWeek(ctx context.Context, week WeekKey) ([]*ProgressEntry, error)

	// ListByMemberWeek returns the member's entries for the cycle.
	ListByMemberWeek(ctx context.Context, memberID MemberID, week WeekKey) ([]*ProgressEntry, error)

	// ResetWeek deletes all entries for the cycle. Goal definitions and
	// the activity log are untouched.
	ResetWeek(ctx context.Context, week WeekKey) error
}

// LogRepository defines storage for the append-only activity log.
type LogRepository interface {
	// Append records a new log event. Events are never updated or deleted.
	Append(ctx context.Context, event *LogEvent) error

	// ListByMemberWeek returns a member's events for the cycle in
	// insertion order.
	ListByMemberWeek(ctx context.Context, memberID MemberID, week WeekKey) ([]*LogEvent, error)

	// ListByWeek returns all events for the cycle in insertion order.
	ListByWeek(ctx context.Context, week WeekKey) ([]*LogEvent, error)

	// LastNote returns the most recent non-empty note the member
	// attached this week, and whether one exists. Recency is insertion
	// order, not timestamps.
	LastNote(ctx context.Context, memberID MemberID, week WeekKey) (string, bool, error)
}

// Cache defines caching for per-member goal lists.
type Cache interface {
	// GetMember returns the cached goal list, or a miss.
	GetMember(ctx context.Context, memberID MemberID) ([]*Goal, error)

	// SetMember caches the member's goal list.
	SetMember(ctx context.Context, memberID MemberID, goals []*Goal, ttl time.Duration) error

	// InvalidateMember drops the cached list.
	InvalidateMember(ctx context.Context, memberID MemberID) error
}
