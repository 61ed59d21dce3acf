// Package goal contains the domain model for member goals and their
// weekly tracking state. This is core business logic - no external
// dependencies here.
package goal

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// MemberID represents a unique Discord member identifier.
type MemberID int64

// IsValid checks that the member ID is positive.
func (m MemberID) IsValid() bool {
	return m > 0
}

// String returns the string representation of the ID.
func (m MemberID) String() string {
	return fmt.Sprintf("%d", m)
}

// WeekKey identifies a weekly cycle (its Monday, YYYY-MM-DD).
type WeekKey string

// IsValid checks that the key parses as a Monday date.
func (w WeekKey) IsValid() bool {
	day, err := time.Parse("2006-01-02", string(w))
	if err != nil {
		return false
	}
	return day.Weekday() == time.Monday
}

// String returns the string representation of the key.
func (w WeekKey) String() string {
	return string(w)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Kind determines how a goal's success is measured.
type Kind string

const (
	// KindCount - a numeric quota (e.g. "run 5 times").
	KindCount Kind = "count"
	// KindBoolean - a single done/not-done commitment.
	KindBoolean Kind = "boolean"
)

// IsValid checks that the kind is known.
func (k Kind) IsValid() bool {
	switch k {
	case KindCount, KindBoolean:
		return true
	default:
		return false
	}
}

// Style determines how a count goal is logged during the week.
type Style string

const (
	// StyleIncremental - progress arrives as deltas or running overwrites.
	StyleIncremental Style = "incremental"
	// StyleWeeklyFinal - a single value is reported at week's end.
	// Boolean goals use this style internally: no partial credit.
	StyleWeeklyFinal Style = "weekly_final"
)

// IsValid checks that the style is known.
func (s Style) IsValid() bool {
	switch s {
	case StyleIncremental, StyleWeeklyFinal:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: GOAL
// ══════════════════════════════════════════════════════════════════════════════

// Goal is one member's standing commitment. Identity is (owner, name);
// a goal survives across cycles until the owner removes it, and each
// cycle tracks progress against it from scratch.
type Goal struct {
	// MemberID - the Discord member who owns the goal.
	MemberID MemberID

	// Name - short identifier unique within the owner's goals.
	Name string

	// Kind - how success is measured.
	Kind Kind

	// Style - how count goals are logged. Boolean goals are always
	// StyleWeeklyFinal.
	Style Style

	// Target - the quota for count goals. Zero for boolean goals.
	Target int

	// Unit - optional label for count goals (e.g. "km", "pages").
	Unit string

	// CreatedAt - when the goal was declared.
	CreatedAt time.Time

	// UpdatedAt - last modification time.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidMemberID - member ID must be positive.
	ErrInvalidMemberID = errors.New("invalid member id: must be positive")

	// ErrInvalidWeekKey - week key must be a Monday date.
	ErrInvalidWeekKey = errors.New("invalid week key: must be a Monday in YYYY-MM-DD form")

	// ErrInvalidName - goal name must be 1-60 chars.
	ErrInvalidName = errors.New("invalid goal name: must be 1-60 chars")

	// ErrInvalidKind - unknown goal kind.
	ErrInvalidKind = errors.New("invalid goal kind")

	// ErrInvalidStyle - unknown logging style.
	ErrInvalidStyle = errors.New("invalid logging style")

	// ErrInvalidTarget - count goals need a positive target.
	ErrInvalidTarget = errors.New("invalid target: must be positive for count goals")

	// ErrWrongKind - the operation does not apply to this goal's kind or style.
	ErrWrongKind = errors.New("operation does not apply to this goal kind")

	// ErrGoalNotFound - the owner has no goal with this name.
	ErrGoalNotFound = errors.New("goal not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewGoalParams holds the parameters for declaring a goal.
type NewGoalParams struct {
	MemberID MemberID
	Name     string
	Kind     Kind
	Style    Style
	Target   int
	Unit     string
}

// NewGoal creates a goal, validating all fields. Boolean goals are
// normalized to weekly-final style with no target.
func NewGoal(params NewGoalParams) (*Goal, error) {
	if !params.MemberID.IsValid() {
		return nil, ErrInvalidMemberID
	}

	name := strings.TrimSpace(params.Name)
	if len(name) == 0 || len(name) > 60 {
		return nil, ErrInvalidName
	}

	if !params.Kind.IsValid() {
		return nil, ErrInvalidKind
	}

	style := params.Style
	target := params.Target
	switch params.Kind {
	case KindBoolean:
		style = StyleWeeklyFinal
		target = 0
	case KindCount:
		if !style.IsValid() {
			return nil, ErrInvalidStyle
		}
		if target <= 0 {
			return nil, ErrInvalidTarget
		}
	}

	now := time.Now().UTC()

	return &Goal{
		MemberID:  params.MemberID,
		Name:      name,
		Kind:      params.Kind,
		Style:     style,
		Target:    target,
		Unit:      strings.TrimSpace(params.Unit),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// IsCount returns true for numeric-quota goals.
func (g *Goal) IsCount() bool {
	return g.Kind == KindCount
}

// IsBoolean returns true for done/not-done goals.
func (g *Goal) IsBoolean() bool {
	return g.Kind == KindBoolean
}

// AcceptsIncrements returns true if deltas or overwrites may be logged
// against this goal.
func (g *Goal) AcceptsIncrements() bool {
	return g.Kind == KindCount && g.Style == StyleIncremental
}

// AcceptsFinal returns true if a week-end value may be reported.
func (g *Goal) AcceptsFinal() bool {
	return g.Kind == KindCount && g.Style == StyleWeeklyFinal
}

// AcceptsCompletion returns true if the goal can be marked done/undone.
func (g *Goal) AcceptsCompletion() bool {
	return g.Kind == KindBoolean
}

// Passed decides the goal against one cycle's tracked state. Missing
// state counts as zero progress / not done.
func (g *Goal) Passed(entry *ProgressEntry) bool {
	switch g.Kind {
	case KindBoolean:
		return entry != nil && entry.Done
	case KindCount:
		if entry == nil {
			return g.Target <= 0
		}
		return entry.Value >= g.Target
	default:
		return false
	}
}

// String returns a representation of the goal for logging.
func (g *Goal) String() string {
	if g.IsBoolean() {
		return fmt.Sprintf("Goal{Member: %s, Name: %q, Kind: %s}", g.MemberID, g.Name, g.Kind)
	}
	return fmt.Sprintf("Goal{Member: %s, Name: %q, Kind: %s/%s, Target: %d%s}",
		g.MemberID, g.Name, g.Kind, g.Style, g.Target, unitSuffix(g.Unit))
}

func unitSuffix(unit string) string {
	if unit == "" {
		return ""
	}
	return " " + unit
}

// Clone creates a deep copy of the goal.
func (g *Goal) Clone() *Goal {
	if g == nil {
		return nil
	}

	clone := *g
	return &clone
}
