package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/notification"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/participant"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/watermark"
	"github.com/loser-hub/loser-challenge-hub/internal/infrastructure/scheduler"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// WEEKLY KICKOFF JOB
// ══════════════════════════════════════════════════════════════════════════════

// WeeklyKickoffJob posts the Monday morning digest: the active roster
// and each member's declared goals for the new cycle.
type WeeklyKickoffJob struct {
	guard           *scheduler.Guard
	participantRepo participant.Repository
	goalRepo        goal.Repository
	notifier        notification.Notifier
	logger          *slog.Logger
}

// NewWeeklyKickoffJob creates the job.
func NewWeeklyKickoffJob(
	guard *scheduler.Guard,
	participantRepo participant.Repository,
	goalRepo goal.Repository,
	notifier notification.Notifier,
	logger *slog.Logger,
) *WeeklyKickoffJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &WeeklyKickoffJob{
		guard:           guard,
		participantRepo: participantRepo,
		goalRepo:        goalRepo,
		notifier:        notifier,
		logger:          logger,
	}
}

// Name returns the job name.
func (j *WeeklyKickoffJob) Name() string {
	return watermark.JobWeeklyKickoff
}

// Description returns a human-readable description.
func (j *WeeklyKickoffJob) Description() string {
	return "Posts the Monday roster and goal digest for the new cycle"
}

// Run executes the job for the current date.
func (j *WeeklyKickoffJob) Run(ctx context.Context) error {
	now := timeutil.Now()
	week := timeutil.CycleKey(now)

	ran, err := j.guard.RunIfDue(ctx, watermark.JobWeeklyKickoff, now, func(ctx context.Context) error {
		text, members, err := j.composeDigest(ctx, week)
		if err != nil {
			return err
		}
		if members == 0 {
			j.logger.Info("kickoff skipped, roster empty", "week", week)
			return nil
		}

		if _, err := j.notifier.Send(ctx, notification.ChannelChallenge, text); err != nil {
			return fmt.Errorf("kickoff %s: failed to announce: %w", week, err)
		}

		j.logger.Info("weekly kickoff posted", "week", week, "members", members)
		return nil
	})
	if err != nil {
		return err
	}
	if !ran {
		j.logger.Info("kickoff already ran for date", "week", week)
	}
	return nil
}

// composeDigest renders the roster and goal list for the cycle.
func (j *WeeklyKickoffJob) composeDigest(ctx context.Context, week string) (string, int, error) {
	active, err := j.participantRepo.ListActive(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("kickoff %s: failed to load roster: %w", week, err)
	}
	if len(active) == 0 {
		return "", 0, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("New week %s. %d on the roster.\n", week, len(active)))

	for _, p := range active {
		goals, err := j.goalRepo.ListByMember(ctx, goal.MemberID(p.MemberID))
		if err != nil {
			return "", 0, fmt.Errorf("kickoff %s: failed to load goals: %w", week, err)
		}

		if p.SkipWeek == week {
			sb.WriteString(fmt.Sprintf("%s: excused this week\n", p.DisplayName))
			continue
		}
		if len(goals) == 0 {
			sb.WriteString(fmt.Sprintf("%s: no goals declared yet\n", p.DisplayName))
			continue
		}

		lines := make([]string, len(goals))
		for i, g := range goals {
			lines[i] = describeGoal(g)
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", p.DisplayName, strings.Join(lines, ", ")))
	}

	return sb.String(), len(active), nil
}

func describeGoal(g *goal.Goal) string {
	if g.Kind == goal.KindBoolean {
		return g.Name
	}
	if g.Unit != "" {
		return fmt.Sprintf("%s %d %s", g.Name, g.Target, g.Unit)
	}
	return fmt.Sprintf("%s %d", g.Name, g.Target)
}
