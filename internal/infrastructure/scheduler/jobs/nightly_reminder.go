package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/notification"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/puzzle"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/watermark"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/scheduler"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// NIGHTLY REMINDER JOB
// ══════════════════════════════════════════════════════════════════════════════

// NightlyReminderJob nudges joined players who have not submitted the
// day's puzzle. A skip-day marker silences the reminder but is left in
// place; only the penalty pass consumes it.
type NightlyReminderJob struct {
	guard      *scheduler.Guard
	puzzleRepo puzzle.Repository
	skipStore  puzzle.SkipStore
	notifier   notification.Notifier
	logger     *slog.Logger
}

// NewNightlyReminderJob creates the job.
func NewNightlyReminderJob(
	guard *scheduler.Guard,
	puzzleRepo puzzle.Repository,
	skipStore puzzle.SkipStore,
	notifier notification.Notifier,
	logger *slog.Logger,
) *NightlyReminderJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &NightlyReminderJob{
		guard:      guard,
		puzzleRepo: puzzleRepo,
		skipStore:  skipStore,
		notifier:   notifier,
		logger:     logger,
	}
}

// Name returns the job name.
func (j *NightlyReminderJob) Name() string {
	return watermark.JobNightlyReminder
}

// Description returns a human-readable description.
func (j *NightlyReminderJob) Description() string {
	return "Reminds joined players who have not submitted today's puzzle"
}

// Run executes the job for the current date.
func (j *NightlyReminderJob) Run(ctx context.Context) error {
	now := timeutil.Now()
	day := timeutil.FormatDateStr(now)

	ran, err := j.guard.RunIfDue(ctx, watermark.JobNightlyReminder, now, func(ctx context.Context) error {
		marked, err := j.skipStore.Contains(ctx, now)
		if err != nil {
			return fmt.Errorf("reminder %s: failed to check skip marker: %w", day, err)
		}
		if marked {
			j.logger.Info("reminder silenced by skip marker", "date", day)
			return nil
		}

		index := timeutil.PuzzleIndex(now)
		if index < 0 {
			return puzzle.ErrInvalidPuzzleIndex
		}

		missing, err := j.missingToday(ctx, index)
		if err != nil {
			return err
		}
		if len(missing) == 0 {
			j.logger.Info("nobody to remind", "date", day, "puzzle_index", index)
			return nil
		}

		text := fmt.Sprintf("Puzzle %d is still open for: %s. %d points land at midnight.",
			index, strings.Join(missing, ", "), int(puzzle.MissPenalty))
		if _, err := j.notifier.Send(ctx, notification.ChannelPuzzle, text); err != nil {
			return fmt.Errorf("reminder %s: failed to announce: %w", day, err)
		}

		j.logger.Info("reminder posted", "date", day, "puzzle_index", index, "missing", len(missing))
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		j.logger.Info("reminder already ran for date", "date", day)
	}
	return nil
}

// missingToday returns joined members without a score for the index.
func (j *NightlyReminderJob) missingToday(ctx context.Context, index int) ([]string, error) {
	joined, err := j.puzzleRepo.ListJoined(ctx)
	if err != nil {
		return nil, fmt.Errorf("reminder: failed to list joined players: %w", err)
	}

	var missing []string
	for _, record := range joined {
		if _, ok := record.ScoreFor(index); !ok {
			missing = append(missing, record.MemberID.String())
		}
	}
	return missing, nil
}
