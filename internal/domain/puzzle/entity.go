// Package puzzle contains the ranked daily-puzzle leaderboard: per-player
// score records, the share-text parser, competition ranking with tie
// blocks, and the non-participation penalty.
package puzzle

import (
	"errors"
	"fmt"
	"time"
)

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

// Score is one day's result: 1-6 guesses, or the miss penalty.
type Score int

const (
	// MinScore - solved in one guess.
	MinScore Score = 1
	// MaxScore - solved in six guesses.
	MaxScore Score = 6
	// MissPenalty - charged for a failed or skipped puzzle.
	MissPenalty Score = 7
)

// IsValid checks that the score is a solving result or the miss penalty.
func (s Score) IsValid() bool {
	return (s >= MinScore && s <= MaxScore) || s == MissPenalty
}

// IsMiss reports whether the score is the miss penalty.
func (s Score) IsMiss() bool {
	return s == MissPenalty
}

var (
	// ErrInvalidMemberID - member ID must be positive.
	ErrInvalidMemberID = errors.New("invalid member id: must be positive")

	// ErrInvalidScore - score must be 1-6 or the miss penalty.
	ErrInvalidScore = errors.New("invalid score: must be 1-6 or the miss penalty")

	// ErrInvalidPuzzleIndex - puzzle index must be non-negative.
	ErrInvalidPuzzleIndex = errors.New("invalid puzzle index: must be non-negative")

	// ErrAlreadyScored - the day already has a submitted score, so no
	// penalty applies.
	ErrAlreadyScored = errors.New("day already has a submitted score")

	// ErrNotFound - no record for this member.
	ErrNotFound = errors.New("puzzle record not found")
)

// PlayerRecord is one member's leaderboard state. Cycle fields (Games,
// Total, Scores) reset every week; lifetime counters (Wins, LastPlaces)
// and the Joined flag survive resets.
type PlayerRecord struct {
	// MemberID - the Discord member.
	MemberID MemberID

	// Joined - opted into the daily penalty. Only joined players are
	// charged for missed days and nudged by the nightly reminder.
	// Last place is decided by play, not by this flag.
	Joined bool

	// Games - number of days scored in the open cycle.
	Games int

	// Total - cumulative score for the open cycle. Lower is better.
	// Derived from Scores and maintained incrementally.
	Total int

	// Scores - submitted score per puzzle index for the open cycle.
	Scores map[int]Score

	// Wins - lifetime count of gold-block finishes.
	Wins int

	// LastPlaces - lifetime count of last-place finishes.
	LastPlaces int

	// UpdatedAt - last modification time.
	UpdatedAt time.Time
}

// NewPlayerRecord creates an empty record for a member.
func NewPlayerRecord(memberID MemberID) (*PlayerRecord, error) {
	if !memberID.IsValid() {
		return nil, ErrInvalidMemberID
	}
	return &PlayerRecord{
		MemberID:  memberID,
		Scores:    make(map[int]Score),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// RecordScore stores the day's result. Resubmitting for the same puzzle
// index replaces the previous score: the old value is subtracted from
// the total before the new one is added, so no double-counting occurs.
// Returns true if this replaced an earlier submission.
func (p *PlayerRecord) RecordScore(puzzleIndex int, score Score) (resubmitted bool, err error) {
	if puzzleIndex < 0 {
		return false, ErrInvalidPuzzleIndex
	}
	if !score.IsValid() {
		return false, ErrInvalidScore
	}
	if p.Scores == nil {
		p.Scores = make(map[int]Score)
	}

	if prior, ok := p.Scores[puzzleIndex]; ok {
		p.Total -= int(prior)
		resubmitted = true
	} else {
		p.Games++
	}

	p.Scores[puzzleIndex] = score
	p.Total += int(score)
	p.UpdatedAt = time.Now().UTC()
	return resubmitted, nil
}

// ApplyPenalty charges the miss penalty for a day with no submission.
// Returns ErrAlreadyScored if the member did submit that day.
func (p *PlayerRecord) ApplyPenalty(puzzleIndex int) error {
	if puzzleIndex < 0 {
		return ErrInvalidPuzzleIndex
	}
	if _, ok := p.Scores[puzzleIndex]; ok {
		return ErrAlreadyScored
	}
	_, err := p.RecordScore(puzzleIndex, MissPenalty)
	return err
}

// ScoreFor returns the submitted score for a puzzle index, if any.
func (p *PlayerRecord) ScoreFor(puzzleIndex int) (Score, bool) {
	s, ok := p.Scores[puzzleIndex]
	return s, ok
}

// HasPlayed reports whether the member scored at least once this cycle.
func (p *PlayerRecord) HasPlayed() bool {
	return p.Games > 0
}

// Join opts the member into the daily penalty.
func (p *PlayerRecord) Join() {
	p.Joined = true
	p.UpdatedAt = time.Now().UTC()
}

// Leave opts the member out. Cycle and lifetime state is kept.
func (p *PlayerRecord) Leave() {
	p.Joined = false
	p.UpdatedAt = time.Now().UTC()
}

// AwardWin increments the lifetime win counter.
func (p *PlayerRecord) AwardWin() {
	p.Wins++
	p.UpdatedAt = time.Now().UTC()
}

// AwardLastPlace increments the lifetime last-place counter.
func (p *PlayerRecord) AwardLastPlace() {
	p.LastPlaces++
	p.UpdatedAt = time.Now().UTC()
}

// ResetCycle clears the open cycle's state. The joined flag and
// lifetime counters survive.
func (p *PlayerRecord) ResetCycle() {
	p.Games = 0
	p.Total = 0
	p.Scores = make(map[int]Score)
	p.UpdatedAt = time.Now().UTC()
}

// String returns a representation for logging.
func (p *PlayerRecord) String() string {
	return fmt.Sprintf("PlayerRecord{Member: %s, Joined: %t, Games: %d, Total: %d, Wins: %d, LastPlaces: %d}",
		p.MemberID, p.Joined, p.Games, p.Total, p.Wins, p.LastPlaces)
}
