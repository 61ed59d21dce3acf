package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/loser-hub/loser-challenge-hub/internal/application/command"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/watermark"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/scheduler"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLOSE PUZZLE CYCLE JOB
// ══════════════════════════════════════════════════════════════════════════════

// ClosePuzzlesJob settles the weekly puzzle podium Sunday night, after
// the last penalty pass of the week has run.
type ClosePuzzlesJob struct {
	guard  *scheduler.Guard
	close  *command.ClosePuzzleCycleHandler
	logger *slog.Logger
}

// NewClosePuzzlesJob creates the job.
func NewClosePuzzlesJob(guard *scheduler.Guard, close *command.ClosePuzzleCycleHandler, logger *slog.Logger) *ClosePuzzlesJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClosePuzzlesJob{
		guard:  guard,
		close:  close,
		logger: logger,
	}
}

// Name returns the job name.
func (j *ClosePuzzlesJob) Name() string {
	return watermark.JobClosePuzzles
}

// Description returns a human-readable description.
func (j *ClosePuzzlesJob) Description() string {
	return "Settles the weekly puzzle podium and resets cycle scores"
}

// Run executes the job for the current date.
func (j *ClosePuzzlesJob) Run(ctx context.Context) error {
	now := timeutil.Now()
	week := timeutil.CycleKey(now)

	ran, err := j.guard.RunIfDue(ctx, watermark.JobClosePuzzles, now, func(ctx context.Context) error {
		result, err := j.close.Handle(ctx, command.ClosePuzzleCycleCommand{WeekKey: week})
		if err != nil {
			return fmt.Errorf("close puzzle cycle %s: %w", week, err)
		}

		j.logger.Info("puzzle cycle closed",
			"week", week,
			"players", result.Players,
			"gold", result.Podium.Gold,
			"last", result.Podium.Last,
		)
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		j.logger.Info("puzzle closure already ran for date", "week", week)
	}
	return nil
}
