// Package jobs contains the scheduled jobs driving the weekly challenge
// rhythm. Each job wraps an application command behind the date
// watermark guard, so a re-fired trigger replays no side effects.
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
// EVALUATE WEEK JOB
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateWeekJob closes the challenge week: snapshots state, computes
// the shared verdict, applies the streak transition and syncs penalty
// roles. Runs Sunday evening.
type EvaluateWeekJob struct {
	guard    *scheduler.Guard
	evaluate *command.EvaluateCycleHandler
	backup   *command.CreateBackupHandler
	logger   *slog.Logger
}

// NewEvaluateWeekJob creates the job. The backup handler may be nil to
// disable the pre-evaluation snapshot.
func NewEvaluateWeekJob(
	guard *scheduler.Guard,
	evaluate *command.EvaluateCycleHandler,
	backup *command.CreateBackupHandler,
	logger *slog.Logger,
) *EvaluateWeekJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &EvaluateWeekJob{
		guard:    guard,
		evaluate: evaluate,
		backup:   backup,
		logger:   logger,
	}
}

// Name returns the job name.
func (j *EvaluateWeekJob) Name() string {
	return watermark.JobEvaluateWeek
}

// Description returns a human-readable description.
func (j *EvaluateWeekJob) Description() string {
	return "Evaluates the week's goals, applies the streak and syncs penalty roles"
}

// Run executes the job for the current date.
func (j *EvaluateWeekJob) Run(ctx context.Context) error {
	now := timeutil.Now()
	week := timeutil.CycleKey(now)

	ran, err := j.guard.RunIfDue(ctx, watermark.JobEvaluateWeek, now, func(ctx context.Context) error {
		if j.backup != nil {
			result, err := j.backup.Handle(ctx, command.CreateBackupCommand{WeekKey: week})
			if err != nil {
				// A failed snapshot does not block evaluation.
				j.logger.Error("pre-evaluation backup failed", "week", week, "error", err)
			} else {
				j.logger.Info("pre-evaluation backup stored",
					"week", week,
					"snapshot_id", result.SnapshotID,
				)
			}
		}

		result, err := j.evaluate.Handle(ctx, command.EvaluateCycleCommand{WeekKey: week})
		if err != nil {
			return fmt.Errorf("evaluate week %s: %w", week, err)
		}

		j.logger.Info("week evaluated",
			"week", week,
			"outcome", string(result.Verdict.Outcome),
			"evaluated", len(result.Verdict.Results),
			"passed", result.Verdict.PassedCount(),
			"streak", result.Streak.Current,
			"streak_applied", result.StreakApplied,
		)
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		j.logger.Info("evaluation already ran for date", "week", week)
	}
	return nil
}
