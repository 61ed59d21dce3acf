package challenge

import (
	"errors"
	"fmt"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
)

// TeamStreakID is the identity key of the single team streak record.
// The streak is a named singleton row rather than an ambient global so
// tests can instantiate independent instances.
const TeamStreakID = "team"

// StreakState tracks consecutive team wins across cycles. It is mutated
// only by applying verdicts, at most once per cycle.
type StreakState struct {
	// ID - singleton identity key.
	ID string

	// Current - consecutive wins ending at the last applied cycle.
	// Zero means neutral: the last cycle was a loss, or nothing has
	// been applied yet.
	Current int

	// Best - highest streak ever reached.
	Best int

	// LastAppliedWeek - the cycle whose verdict was applied last.
	// Guards against applying the same cycle twice.
	LastAppliedWeek goal.WeekKey

	// UpdatedAt - last transition time.
	UpdatedAt time.Time
}

var (
	// ErrAlreadyApplied - this cycle's verdict has already driven the streak.
	ErrAlreadyApplied = errors.New("cycle verdict already applied to streak")

	// ErrInvalidOutcome - unknown verdict outcome.
	ErrInvalidOutcome = errors.New("invalid verdict outcome")
)

// NewStreakState creates a fresh neutral streak record.
func NewStreakState() *StreakState {
	return &StreakState{
		ID:        TeamStreakID,
		UpdatedAt: time.Now().UTC(),
	}
}

// Apply transitions the streak on a cycle's outcome. Win: current+1,
// best raised if exceeded. Fail: best absorbs the dying streak, then
// current resets to zero. Applying the same week twice returns
// ErrAlreadyApplied without changing state.
func (s *StreakState) Apply(week goal.WeekKey, outcome Outcome) error {
	if !outcome.IsValid() {
		return ErrInvalidOutcome
	}
	if s.LastAppliedWeek == week {
		return ErrAlreadyApplied
	}

	switch outcome {
	case OutcomeWin:
		s.Current++
		if s.Current > s.Best {
			s.Best = s.Current
		}
	case OutcomeFail:
		if s.Current > s.Best {
			s.Best = s.Current
		}
		s.Current = 0
	}

	s.LastAppliedWeek = week
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// IsActive reports whether the team is on a streak.
func (s *StreakState) IsActive() bool {
	return s.Current > 0
}

// String returns a representation for logging.
func (s *StreakState) String() string {
	return fmt.Sprintf("StreakState{Current: %d, Best: %d, LastApplied: %s}",
		s.Current, s.Best, s.LastAppliedWeek)
}
