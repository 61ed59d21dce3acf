package puzzle

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines storage for player records.
type Repository interface {
	// Upsert stores the record, scores included, replacing any
	// previous state for the member.
	Upsert(ctx context.Context, record *PlayerRecord) error

	// Get returns the member's record with scores loaded.
	// Returns ErrNotFound if the member has no record.
	Get(ctx context.Context, memberID MemberID) (*PlayerRecord, error)

	// GetOrCreate returns the member's record, creating an empty one
	// if none exists.
	GetOrCreate(ctx context.Context, memberID MemberID) (*PlayerRecord, error)

	// ListAll returns every record with scores loaded.
	ListAll(ctx context.Context) ([]*PlayerRecord, error)

	// ListJoined returns records of members opted into the penalty.
	ListJoined(ctx context.Context) ([]*PlayerRecord, error)
}

// Podium is the stored outcome of one cycle closure. Repeated closure
// for the same week replaces it.
type Podium struct {
	WeekKey  string
	Gold     []MemberID
	Silver   []MemberID
	Bronze   []MemberID
	Last     []MemberID
	ClosedAt time.Time
}

// PodiumRepository defines storage for the last settled podium.
type PodiumRepository interface {
	// Save stores the podium, replacing any previous one for the week.
	Save(ctx context.Context, podium *Podium) error

	// GetLatest returns the most recently settled podium.
	// Returns ErrNotFound if no cycle has been closed yet.
	GetLatest(ctx context.Context) (*Podium, error)
}

// SkipStore holds one-shot skip-day markers. A marked date suppresses
// that day's penalty pass; consuming the marker removes it.
type SkipStore interface {
	// Add marks a date to be skipped. Marking twice is a no-op.
	Add(ctx context.Context, date time.Time) error

	// Contains reports whether the date is marked, without consuming.
	// Reminder passes peek; only the penalty pass consumes.
	Contains(ctx context.Context, date time.Time) (bool, error)

	// Consume removes the marker for the date and reports whether one
	// was present. A marker is observed at most once.
	Consume(ctx context.Context, date time.Time) (bool, error)
}
