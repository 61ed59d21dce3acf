// Package challenge contains the weekly team verdict: evaluating every
// member's goals at the cycle boundary, aggregating to a Win/Fail
// outcome, and driving the team streak.
package challenge

import (
	"fmt"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
)

// Outcome is the team result of one cycle.
type Outcome string

const (
	// OutcomeWin - every evaluated member passed every goal.
	OutcomeWin Outcome = "win"
	// OutcomeFail - at least one member failed at least one goal,
	// or had no goals declared.
	OutcomeFail Outcome = "fail"
)

// IsValid checks that the outcome is known.
func (o Outcome) IsValid() bool {
	return o == OutcomeWin || o == OutcomeFail
}

// GoalResult is one goal's pass/fail inside a verdict.
type GoalResult struct {
	GoalName string
	Kind     goal.Kind
	Target   int
	Value    int
	Done     bool
	Passed   bool
}

// MemberResult aggregates one member's goals for the cycle.
type MemberResult struct {
	MemberID goal.MemberID
	// NoGoals marks a member who declared nothing this cycle. Such a
	// member fails by policy: joining the challenge means committing
	// to at least one goal.
	NoGoals bool
	Goals   []GoalResult
}

// Passed reports whether the member cleared all goals.
func (r MemberResult) Passed() bool {
	if r.NoGoals {
		return false
	}
	for _, g := range r.Goals {
		if !g.Passed {
			return false
		}
	}
	return true
}

// FailedGoals returns the names of the member's failing goals.
func (r MemberResult) FailedGoals() []string {
	var failed []string
	for _, g := range r.Goals {
		if !g.Passed {
			failed = append(failed, g.GoalName)
		}
	}
	return failed
}

// CycleVerdict is the immutable record of one cycle's evaluation.
// Re-evaluating the same cycle overwrites the stored verdict; there is
// never more than one per week key.
type CycleVerdict struct {
	WeekKey     goal.WeekKey
	Outcome     Outcome
	Results     []MemberResult
	EvaluatedAt time.Time
}

// TeamWon reports whether the cycle was a win.
func (v *CycleVerdict) TeamWon() bool {
	return v.Outcome == OutcomeWin
}

// FailedMembers returns the members who count against the team.
func (v *CycleVerdict) FailedMembers() []goal.MemberID {
	var failed []goal.MemberID
	for _, r := range v.Results {
		if !r.Passed() {
			failed = append(failed, r.MemberID)
		}
	}
	return failed
}

// PassedCount returns how many members cleared all their goals.
func (v *CycleVerdict) PassedCount() int {
	passed := 0
	for _, r := range v.Results {
		if r.Passed() {
			passed++
		}
	}
	return passed
}

// String returns a representation for logging.
func (v *CycleVerdict) String() string {
	return fmt.Sprintf("CycleVerdict{Week: %s, Outcome: %s, Passed: %d/%d}",
		v.WeekKey, v.Outcome, v.PassedCount(), len(v.Results))
}
