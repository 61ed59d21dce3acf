// Package watermark records the last calendar date each scheduled job
// executed its side effects, so a trigger that fires twice (or late)
// runs the job's logic at most once per date.
package watermark

import (
	"errors"
	"fmt"
	"time"
)

// Known job identities. Each guarded job advances its own watermark.
const (
	JobEvaluateWeek    = "evaluate_week"
	JobResetWeek       = "reset_week"
	JobDailyPenalty    = "daily_penalty"
	JobClosePuzzles    = "close_puzzle_cycle"
	JobWeeklyKickoff   = "weekly_kickoff"
	JobNightlyReminder = "nightly_reminder"
)

// Watermark is one job's execution marker.
type Watermark struct {
	// JobID - the job identity.
	JobID string

	// LastRunDate - the calendar date (midnight UTC) of the last
	// executed run. Zero if the job never ran.
	LastRunDate time.Time

	// UpdatedAt - when the watermark last advanced.
	UpdatedAt time.Time
}

var (
	// ErrInvalidJobID - job ID must not be empty.
	ErrInvalidJobID = errors.New("invalid job id: must not be empty")

	// ErrNotDue - the job already ran for this date.
	ErrNotDue = errors.New("job already ran for this date")
)

// NewWatermark creates a marker for a job that has never run.
func NewWatermark(jobID string) (*Watermark, error) {
	if jobID == "" {
		return nil, ErrInvalidJobID
	}
	return &Watermark{JobID: jobID}, nil
}

// IsDue reports whether the job should run for the scheduled date.
// Only the calendar date matters; time of day is ignored.
func (w *Watermark) IsDue(scheduledDate time.Time) bool {
	return !sameDate(w.LastRunDate, scheduledDate)
}

// Advance marks the date as executed. Returns ErrNotDue if the date
// was already marked.
func (w *Watermark) Advance(scheduledDate time.Time) error {
	if !w.IsDue(scheduledDate) {
		return ErrNotDue
	}
	w.LastRunDate = truncateToDate(scheduledDate)
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func sameDate(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return a.IsZero() && b.IsZero()
	}
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// String returns a representation for logging.
func (w *Watermark) String() string {
	if w.LastRunDate.IsZero() {
		return fmt.Sprintf("Watermark{Job: %s, never ran}", w.JobID)
	}
	return fmt.Sprintf("Watermark{Job: %s, LastRun: %s}", w.JobID, w.LastRunDate.Format("2006-01-02"))
}
