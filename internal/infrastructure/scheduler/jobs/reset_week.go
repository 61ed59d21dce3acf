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
// RESET WEEK JOB
// ══════════════════════════════════════════════════════════════════════════════

// ResetWeekJob opens the new cycle early Monday: clears the week's
// progress entries and consumes the excuses spent on the week that just
// finished. Excuses for the new week stay pending until its own
// evaluation has passed. Goal definitions, the streak and the activity
// log survive.
type ResetWeekJob struct {
	guard  *scheduler.Guard
	reset  *command.ResetCycleHandler
	logger *slog.Logger
}

// NewResetWeekJob creates the job.
func NewResetWeekJob(guard *scheduler.Guard, reset *command.ResetCycleHandler, logger *slog.Logger) *ResetWeekJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetWeekJob{
		guard:  guard,
		reset:  reset,
		logger: logger,
	}
}

// Name returns the job name.
func (j *ResetWeekJob) Name() string {
	return watermark.JobResetWeek
}

// Description returns a human-readable description.
func (j *ResetWeekJob) Description() string {
	return "Clears the new week's progress and consumes the finished week's excuses"
}

// Run executes the job for the current date.
func (j *ResetWeekJob) Run(ctx context.Context) error {
	now := timeutil.Now()
	week := timeutil.CycleKey(now)

	ran, err := j.guard.RunIfDue(ctx, watermark.JobResetWeek, now, func(ctx context.Context) error {
		result, err := j.reset.Handle(ctx, command.ResetCycleCommand{WeekKey: week})
		if err != nil {
			return fmt.Errorf("reset week %s: %w", week, err)
		}

		j.logger.Info("cycle reset",
			"week", result.WeekKey,
			"finished_week", result.FinishedWeek,
			"consumed_skips", len(result.ConsumedSkips),
		)
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		j.logger.Info("cycle reset already ran for date", "week", week)
	}
	return nil
}
