package challenge

import (
	"context"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// VerdictRepository defines storage for cycle verdicts.
type VerdictRepository interface {
	// Upsert stores the verdict, replacing any previous verdict for the
	// same week. Repeated evaluation overwrites, never accumulates.
	Upsert(ctx context.Context, verdict *CycleVerdict) error

	// Get returns the verdict for the cycle.
	// Returns a domain not-found error if the cycle was never evaluated.
	Get(ctx context.Context, week goal.WeekKey) (*CycleVerdict, error)

	// ListRecent returns the most recent verdicts, newest first.
	ListRecent(ctx context.Context, limit int) ([]*CycleVerdict, error)
}

// StreakRepository defines storage for the team streak singleton.
type StreakRepository interface {
	// Get returns the streak record, creating a neutral one if the row
	// does not exist yet.
	Get(ctx context.Context) (*StreakState, error)

	// Save persists the streak record.
	Save(ctx context.Context, state *StreakState) error
}
