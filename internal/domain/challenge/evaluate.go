package challenge

import (
	"sort"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
)

// MemberInput is one member's evaluation material: the goals they have
// declared and whatever tracking state the cycle recorded. Members who
// are inactive or excused for the week must be filtered out before
// evaluation; this engine judges everyone it is given.
type MemberInput struct {
	MemberID goal.MemberID
	Goals    []*goal.Goal
	// Entries keyed by goal name. Goals with no entry are judged
	// against zero progress.
	Entries map[string]*goal.ProgressEntry
}

// Evaluate computes the cycle verdict. It is a pure function of its
// inputs: calling it twice on the same state yields the same verdict,
// so retries are safe. Applying the verdict to the streak is a separate,
// guarded step.
//
// A member with zero goals fails by policy. The team wins only if every
// evaluated member passes everything.
func Evaluate(week goal.WeekKey, members []MemberInput) *CycleVerdict {
	results := make([]MemberResult, 0, len(members))

	for _, m := range members {
		if len(m.Goals) == 0 {
			results = append(results, MemberResult{MemberID: m.MemberID, NoGoals: true})
			continue
		}

		goals := make([]GoalResult, 0, len(m.Goals))
		for _, g := range m.Goals {
			entry := m.Entries[g.Name]
			result := GoalResult{
				GoalName: g.Name,
				Kind:     g.Kind,
				Target:   g.Target,
				Passed:   g.Passed(entry),
			}
			if entry != nil {
				result.Value = entry.Value
				result.Done = entry.Done
			}
			goals = append(goals, result)
		}

		results = append(results, MemberResult{MemberID: m.MemberID, Goals: goals})
	}

	// Deterministic ordering regardless of input order.
	sort.Slice(results, func(i, j int) bool {
		return results[i].MemberID < results[j].MemberID
	})

	outcome := OutcomeWin
	for _, r := range results {
		if !r.Passed() {
			outcome = OutcomeFail
			break
		}
	}

	return &CycleVerdict{
		WeekKey:     week,
		Outcome:     outcome,
		Results:     results,
		EvaluatedAt: time.Now().UTC(),
	}
}
