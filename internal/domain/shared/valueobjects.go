// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// MemberID represents a unique Discord member identifier (snowflake).
type MemberID int64

// IsValid checks if the member ID is valid (positive number).
func (m MemberID) IsValid() bool {
	return m > 0
}

// Int64 returns the underlying int64 value.
func (m MemberID) Int64() int64 {
	return int64(m)
}

// String returns the string representation.
func (m MemberID) String() string {
	return fmt.Sprintf("%d", m)
}

// NewMemberID creates a new MemberID with validation.
func NewMemberID(id int64) (MemberID, error) {
	if id <= 0 {
		return 0, ErrInvalidMemberID
	}
	return MemberID(id), nil
}

// GoalID represents a unique goal identifier (UUID format).
type GoalID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the goal ID is a valid UUID.
func (g GoalID) IsValid() bool {
	return uuidRegex.MatchString(string(g))
}

// String returns the string representation.
func (g GoalID) String() string {
	return string(g)
}

// IsEmpty checks if the ID is empty.
func (g GoalID) IsEmpty() bool {
	return g == ""
}

// NewGoalID creates a new GoalID with validation.
func NewGoalID(id string) (GoalID, error) {
	gid := GoalID(strings.ToLower(strings.TrimSpace(id)))
	if !gid.IsValid() {
		return "", NewDomainError("shared", "NewGoalID", ErrInvalidID, "invalid goal ID format")
	}
	return gid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// WeekKey Value Object
// ═══════════════════════════════════════════════════════════════════════════

// WeekKey identifies a weekly cycle by its Monday date (YYYY-MM-DD).
type WeekKey string

var weekKeyRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsValid checks that the key is a parseable Monday date.
func (w WeekKey) IsValid() bool {
	if !weekKeyRegex.MatchString(string(w)) {
		return false
	}
	day, err := time.Parse("2006-01-02", string(w))
	if err != nil {
		return false
	}
	return day.Weekday() == time.Monday
}

// String returns the string representation.
func (w WeekKey) String() string {
	return string(w)
}

// Time returns the Monday the key names, at midnight UTC.
func (w WeekKey) Time() time.Time {
	day, _ := time.Parse("2006-01-02", string(w))
	return day
}

// NewWeekKey creates a WeekKey with validation.
func NewWeekKey(value string) (WeekKey, error) {
	w := WeekKey(strings.TrimSpace(value))
	if !w.IsValid() {
		return "", NewDomainError("shared", "NewWeekKey", ErrInvalidFormat, "week key must be a Monday date in YYYY-MM-DD form")
	}
	return w, nil
}

// WeekKeyFor returns the key of the cycle containing t.
func WeekKeyFor(t time.Time) WeekKey {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := t.AddDate(0, 0, -(weekday - 1))
	return WeekKey(monday.Format("2006-01-02"))
}

// ═══════════════════════════════════════════════════════════════════════════
// Score Value Object (daily puzzle)
// ═══════════════════════════════════════════════════════════════════════════

// Score represents a single day's puzzle result. Solved puzzles score the
// number of guesses used; a miss or skipped day scores the penalty.
type Score int

const (
	// MinScore is the best possible result (solved in one guess).
	MinScore Score = 1
	// MaxScore is the worst solving result (solved in six guesses).
	MaxScore Score = 6
	// MissPenalty is charged for a failed or skipped puzzle.
	MissPenalty Score = 7
)

// IsValid checks if the score is a solving result or the miss penalty.
func (s Score) IsValid() bool {
	return (s >= MinScore && s <= MaxScore) || s == MissPenalty
}

// IsMiss reports whether the score is the miss penalty.
func (s Score) IsMiss() bool {
	return s == MissPenalty
}

// Int returns the underlying int value.
func (s Score) Int() int {
	return int(s)
}

// NewScore creates a new Score with validation.
func NewScore(value int) (Score, error) {
	s := Score(value)
	if !s.IsValid() {
		return 0, ErrScoreOutOfRange
	}
	return s, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rank represents a position in the puzzle leaderboard. Tied players share
// a rank and the next distinct total skips the tied positions.
type Rank int

const (
	MinRank  Rank = 1
	Unranked Rank = 0 // Not yet ranked
)

// IsValid checks if the rank is valid.
func (r Rank) IsValid() bool {
	return r >= MinRank
}

// Int returns the underlying int value.
func (r Rank) Int() int {
	return int(r)
}

// IsUnranked checks if the player is not yet ranked.
func (r Rank) IsUnranked() bool {
	return r == Unranked
}

// IsPodium returns true for the first three distinct rank blocks.
func (r Rank) IsPodium() bool {
	return r >= 1 && r <= 3
}

// Medal returns a medal emoji for podium ranks.
func (r Rank) Medal() string {
	switch r {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}

// NewRank creates a new Rank with validation.
func NewRank(position int) (Rank, error) {
	if position < 0 {
		return Unranked, NewDomainError("shared", "NewRank", ErrNegativeValue, "rank cannot be negative")
	}
	return Rank(position), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange represents a time period.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the time range is valid.
func (t TimeRange) IsValid() bool {
	return !t.From.IsZero() && !t.To.IsZero() && !t.From.After(t.To)
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.To.Sub(t.From)
}

// Contains checks if a time is within the range.
func (t TimeRange) Contains(tm time.Time) bool {
	return (tm.Equal(t.From) || tm.After(t.From)) && (tm.Equal(t.To) || tm.Before(t.To))
}

// NewTimeRange creates a new TimeRange with validation.
func NewTimeRange(from, to time.Time) (TimeRange, error) {
	tr := TimeRange{From: from, To: to}
	if !tr.IsValid() {
		return TimeRange{}, NewDomainError("shared", "NewTimeRange", ErrInvalidInput, "'from' must be before 'to'")
	}
	return tr, nil
}

// LastNDays returns a TimeRange for the last N days.
func LastNDays(n int) TimeRange {
	now := time.Now()
	return TimeRange{
		From: now.AddDate(0, 0, -n),
		To:   now,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}
