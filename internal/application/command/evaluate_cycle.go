package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/challenge"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/notification"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/participant"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATE CYCLE COMMAND
// Turns one week's tracked progress into a team verdict. Computing and
// storing the verdict is safe to repeat: the verdict row is overwritten.
// The streak transition and the penalty role changes are applied at most
// once per week, guarded by the streak's own high-water mark.
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateCycleCommand requests evaluation of one cycle.
type EvaluateCycleCommand struct {
	// WeekKey is the Monday of the cycle to evaluate. Defaults to the
	// current cycle.
	WeekKey string

	// ComputeOnly stores the verdict without touching the streak,
	// roles, or announcements. Used for previews and re-checks.
	ComputeOnly bool
}

// EvaluateCycleResult contains the outcome of an evaluation run.
type EvaluateCycleResult struct {
	// Verdict is the computed and stored verdict.
	Verdict *challenge.CycleVerdict

	// StreakApplied indicates this call performed the week's streak
	// transition. False when guarded off or ComputeOnly.
	StreakApplied bool

	// Streak is the team streak after this call.
	Streak *challenge.StreakState

	// MarkedMembers lists members whose penalty role changed.
	MarkedMembers []int64
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// EvaluateCycleHandler handles the EvaluateCycleCommand.
type EvaluateCycleHandler struct {
	participantRepo participant.Repository
	goalRepo        goal.Repository
	progressRepo    goal.ProgressRepository
	verdictRepo     challenge.VerdictRepository
	streakRepo      challenge.StreakRepository
	roleSync        notification.RoleSync
	notifier        notification.Notifier
	eventPublisher  shared.EventPublisher
}

// NewEvaluateCycleHandler creates a new EvaluateCycleHandler. The role
// sync, notifier and publisher may be nil.
func NewEvaluateCycleHandler(
	participantRepo participant.Repository,
	goalRepo goal.Repository,
	progressRepo goal.ProgressRepository,
	verdictRepo challenge.VerdictRepository,
	streakRepo challenge.StreakRepository,
	roleSync notification.RoleSync,
	notifier notification.Notifier,
	eventPublisher shared.EventPublisher,
) *EvaluateCycleHandler {
	return &EvaluateCycleHandler{
		participantRepo: participantRepo,
		goalRepo:        goalRepo,
		progressRepo:    progressRepo,
		verdictRepo:     verdictRepo,
		streakRepo:      streakRepo,
		roleSync:        roleSync,
		notifier:        notifier,
		eventPublisher:  eventPublisher,
	}
}

// Handle executes the evaluate cycle command.
func (h *EvaluateCycleHandler) Handle(ctx context.Context, cmd EvaluateCycleCommand) (*EvaluateCycleResult, error) {
	week, err := h.resolveWeek(cmd.WeekKey)
	if err != nil {
		return nil, fmt.Errorf("evaluate_cycle: %w", err)
	}

	verdict, evaluated, err := h.computeVerdict(ctx, week)
	if err != nil {
		return nil, err
	}

	if err := h.verdictRepo.Upsert(ctx, verdict); err != nil {
		return nil, fmt.Errorf("evaluate_cycle: failed to store verdict: %w", err)
	}

	result := &EvaluateCycleResult{Verdict: verdict}

	if cmd.ComputeOnly {
		return result, nil
	}

	streak, err := h.streakRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluate_cycle: failed to load streak: %w", err)
	}
	result.Streak = streak

	prevStreak := streak.Current
	if err := streak.Apply(week, verdict.Outcome); err != nil {
		if errors.Is(err, challenge.ErrAlreadyApplied) {
			// The week's transition already ran; the stored verdict was
			// still refreshed above.
			return result, nil
		}
		return nil, fmt.Errorf("evaluate_cycle: failed to apply streak: %w", err)
	}

	if err := h.streakRepo.Save(ctx, streak); err != nil {
		return nil, fmt.Errorf("evaluate_cycle: failed to save streak: %w", err)
	}
	result.StreakApplied = true

	result.MarkedMembers = h.syncRoles(ctx, verdict, evaluated)
	h.announce(ctx, verdict, streak)
	h.publishEvents(verdict, streak, prevStreak)

	return result, nil
}

// computeVerdict gathers the week's roster, goals and tracking state and
// runs the pure evaluation. Members excused for the week are excluded.
func (h *EvaluateCycleHandler) computeVerdict(ctx context.Context, week goal.WeekKey) (*challenge.CycleVerdict, []*participant.Participant, error) {
	roster, err := h.participantRepo.ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate_cycle: failed to load roster: %w", err)
	}

	evaluated := make([]*participant.Participant, 0, len(roster))
	inputs := make([]challenge.MemberInput, 0, len(roster))

	for _, p := range roster {
		if !p.IsEvaluated(week.String()) {
			continue
		}
		evaluated = append(evaluated, p)

		memberID := goal.MemberID(p.MemberID)

		goals, err := h.goalRepo.ListByMember(ctx, memberID)
		if err != nil {
			return nil, nil, fmt.Errorf("evaluate_cycle: failed to load goals for %s: %w", p.MemberID, err)
		}

		entries, err := h.progressRepo.ListByMemberWeek(ctx, memberID, week)
		if err != nil {
			return nil, nil, fmt.Errorf("evaluate_cycle: failed to load progress for %s: %w", p.MemberID, err)
		}

		byName := make(map[string]*goal.ProgressEntry, len(entries))
		for _, e := range entries {
			byName[e.GoalName] = e
		}

		inputs = append(inputs, challenge.MemberInput{
			MemberID: memberID,
			Goals:    goals,
			Entries:  byName,
		})
	}

	return challenge.Evaluate(week, inputs), evaluated, nil
}

// syncRoles applies the penalty role to everyone on a team fail and
// clears it from everyone on a team win. Both directions are idempotent
// on the platform side; individual failures are skipped.
func (h *EvaluateCycleHandler) syncRoles(ctx context.Context, verdict *challenge.CycleVerdict, evaluated []*participant.Participant) []int64 {
	if h.roleSync == nil {
		return nil
	}

	marked := make([]int64, 0, len(evaluated))
	for _, p := range evaluated {
		id := int64(p.MemberID)
		var err error
		if verdict.TeamWon() {
			err = h.roleSync.RemovePenaltyMarker(ctx, id)
		} else {
			err = h.roleSync.AddPenaltyMarker(ctx, id)
		}
		if err != nil {
			continue
		}
		marked = append(marked, id)
	}
	return marked
}

// announce posts the verdict summary to the challenge channel.
func (h *EvaluateCycleHandler) announce(ctx context.Context, verdict *challenge.CycleVerdict, streak *challenge.StreakState) {
	if h.notifier == nil {
		return
	}
	_, _ = h.notifier.Send(ctx, notification.ChannelChallenge, renderVerdict(verdict, streak))
}

func (h *EvaluateCycleHandler) publishEvents(verdict *challenge.CycleVerdict, streak *challenge.StreakState, prevStreak int) {
	if h.eventPublisher == nil {
		return
	}

	_ = h.eventPublisher.Publish(shared.NewCycleEvaluatedEvent(
		verdict.WeekKey.String(),
		verdict.TeamWon(),
		verdict.PassedCount(),
		len(verdict.Results),
		streak.Current,
	))

	if !verdict.TeamWon() && prevStreak > 0 {
		_ = h.eventPublisher.Publish(shared.NewStreakBrokenEvent(verdict.WeekKey.String(), prevStreak, streak.Best))
	}
}

// renderVerdict builds the announcement text for one verdict.
func renderVerdict(verdict *challenge.CycleVerdict, streak *challenge.StreakState) string {
	var b strings.Builder

	if verdict.TeamWon() {
		fmt.Fprintf(&b, "Week %s: team WIN. All %d members cleared their goals.\n", verdict.WeekKey, len(verdict.Results))
		fmt.Fprintf(&b, "Streak: %d (best %d)", streak.Current, streak.Best)
		return b.String()
	}

	fmt.Fprintf(&b, "Week %s: team FAIL. %d/%d members passed.\n", verdict.WeekKey, verdict.PassedCount(), len(verdict.Results))
	for _, r := range verdict.Results {
		if r.Passed() {
			continue
		}
		if r.NoGoals {
			fmt.Fprintf(&b, "- %s: no goals declared\n", r.MemberID)
			continue
		}
		fmt.Fprintf(&b, "- %s: missed %s\n", r.MemberID, strings.Join(r.FailedGoals(), ", "))
	}
	fmt.Fprintf(&b, "Streak reset (best %d)", streak.Best)
	return b.String()
}

func (h *EvaluateCycleHandler) resolveWeek(key string) (goal.WeekKey, error) {
	if key == "" {
		return goal.WeekKey(timeutil.CycleKey(timeutil.Now())), nil
	}
	if _, err := timeutil.ParseCycleKey(key); err != nil {
		return "", err
	}
	return goal.WeekKey(key), nil
}
