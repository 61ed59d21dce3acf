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
// DAILY PENALTY JOB
// ══════════════════════════════════════════════════════════════════════════════

// DailyPenaltyJob charges the miss penalty to joined players who did
// not submit the day's puzzle. Runs late evening, after the reminder.
type DailyPenaltyJob struct {
	guard   *scheduler.Guard
	penalty *command.ApplyDailyPenaltyHandler
	logger  *slog.Logger
}

// NewDailyPenaltyJob creates the job.
func NewDailyPenaltyJob(guard *scheduler.Guard, penalty *command.ApplyDailyPenaltyHandler, logger *slog.Logger) *DailyPenaltyJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyPenaltyJob{
		guard:   guard,
		penalty: penalty,
		logger:  logger,
	}
}

// Name returns the job name.
func (j *DailyPenaltyJob) Name() string {
	return watermark.JobDailyPenalty
}

// Description returns a human-readable description.
func (j *DailyPenaltyJob) Description() string {
	return "Charges the miss penalty to joined players without today's puzzle score"
}

// Run executes the job for the current date.
func (j *DailyPenaltyJob) Run(ctx context.Context) error {
	now := timeutil.Now()

	ran, err := j.guard.RunIfDue(ctx, watermark.JobDailyPenalty, now, func(ctx context.Context) error {
		result, err := j.penalty.Handle(ctx, command.ApplyDailyPenaltyCommand{Date: now})
		if err != nil {
			return fmt.Errorf("daily penalty %s: %w", timeutil.FormatDateStr(now), err)
		}

		if result.Skipped {
			j.logger.Info("penalty pass skipped by marker",
				"date", timeutil.FormatDateStr(now),
			)
			return nil
		}

		j.logger.Info("daily penalty applied",
			"date", timeutil.FormatDateStr(now),
			"puzzle_index", result.PuzzleIndex,
			"penalized", len(result.Penalized),
		)
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		j.logger.Info("penalty pass already ran for date", "date", timeutil.FormatDateStr(now))
	}
	return nil
}
