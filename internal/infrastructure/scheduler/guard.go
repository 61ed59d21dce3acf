package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/watermark"
)

// Guard runs job logic at most once per calendar date, using the job's
// persisted watermark. A crashed process that restarts and re-fires the
// trigger sees the advanced watermark and skips; a process that crashed
// before advancing re-runs, so guarded logic must be safe to repeat.
type Guard struct {
	watermarks watermark.Repository
	logger     *slog.Logger
}

// NewGuard creates a new Guard.
func NewGuard(watermarks watermark.Repository, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		watermarks: watermarks,
		logger:     logger,
	}
}

// RunIfDue executes fn if the job has not yet run for the scheduled
// date, then advances the watermark. Returns (false, nil) when the date
// was already executed. The watermark advances only after fn succeeds:
// a failed run stays due and the next trigger retries it.
func (g *Guard) RunIfDue(ctx context.Context, jobID string, scheduledDate time.Time, fn func(ctx context.Context) error) (bool, error) {
	w, err := g.watermarks.Get(ctx, jobID)
	if err != nil {
		return false, fmt.Errorf("guard %s: failed to load watermark: %w", jobID, err)
	}

	if !w.IsDue(scheduledDate) {
		g.logger.Debug("job already ran for date",
			"job", jobID,
			"date", scheduledDate.Format("2006-01-02"),
		)
		return false, nil
	}

	if err := fn(ctx); err != nil {
		return false, err
	}

	if err := w.Advance(scheduledDate); err != nil {
		if errors.Is(err, watermark.ErrNotDue) {
			return true, nil
		}
		return true, fmt.Errorf("guard %s: failed to advance watermark: %w", jobID, err)
	}
	if err := g.watermarks.Save(ctx, w); err != nil {
		return true, fmt.Errorf("guard %s: failed to save watermark: %w", jobID, err)
	}

	return true, nil
}
