package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/notification"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/puzzle"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CLOSE PUZZLE CYCLE COMMAND
// Settles the open leaderboard cycle: ranks totals ascending, stores the
// podium, credits lifetime win and last-place counters, and resets every
// record's per-cycle state. Lifetime counters and the joined flag
// survive the reset. The closure day is marked as a skip day so the
// nightly penalty pass that follows does not charge anyone for it.
// ══════════════════════════════════════════════════════════════════════════════

// ClosePuzzleCycleCommand requests closure of the open cycle.
type ClosePuzzleCycleCommand struct {
	// WeekKey labels the cycle being settled. Defaults to the current
	// cycle.
	WeekKey string
}

// ClosePuzzleCycleResult contains the settled podium.
type ClosePuzzleCycleResult struct {
	// Podium is the stored outcome.
	Podium *puzzle.Podium

	// Players is how many records carried at least one game.
	Players int
}

// ClosePuzzleCycleHandler handles the ClosePuzzleCycleCommand.
type ClosePuzzleCycleHandler struct {
	puzzleRepo     puzzle.Repository
	podiumRepo     puzzle.PodiumRepository
	skipStore      puzzle.SkipStore
	notifier       notification.Notifier
	eventPublisher shared.EventPublisher
}

// NewClosePuzzleCycleHandler creates a new ClosePuzzleCycleHandler. The
// skip store, notifier and publisher may be nil.
func NewClosePuzzleCycleHandler(
	puzzleRepo puzzle.Repository,
	podiumRepo puzzle.PodiumRepository,
	skipStore puzzle.SkipStore,
	notifier notification.Notifier,
	eventPublisher shared.EventPublisher,
) *ClosePuzzleCycleHandler {
	return &ClosePuzzleCycleHandler{
		puzzleRepo:     puzzleRepo,
		podiumRepo:     podiumRepo,
		skipStore:      skipStore,
		notifier:       notifier,
		eventPublisher: eventPublisher,
	}
}

// Handle executes the close puzzle cycle command.
func (h *ClosePuzzleCycleHandler) Handle(ctx context.Context, cmd ClosePuzzleCycleCommand) (*ClosePuzzleCycleResult, error) {
	week := cmd.WeekKey
	if week == "" {
		week = timeutil.CycleKey(timeutil.Now())
	}

	records, err := h.puzzleRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("close_cycle: failed to load records: %w", err)
	}

	played := make([]*puzzle.PlayerRecord, 0, len(records))
	entries := make([]puzzle.Entry, 0, len(records))
	for _, r := range records {
		if !r.HasPlayed() {
			continue
		}
		played = append(played, r)
		entries = append(entries, puzzle.Entry{MemberID: r.MemberID, Total: r.Total})
	}

	ranking := puzzle.RankCycle(entries)
	last := puzzle.LastPlace(played)

	podium := &puzzle.Podium{
		WeekKey:  week,
		Gold:     ranking.Gold(),
		Silver:   ranking.Silver(),
		Bronze:   ranking.Bronze(),
		Last:     last,
		ClosedAt: time.Now().UTC(),
	}

	if err := h.podiumRepo.Save(ctx, podium); err != nil {
		return nil, fmt.Errorf("close_cycle: failed to store podium: %w", err)
	}

	if err := h.settleRecords(ctx, records, podium); err != nil {
		return nil, err
	}

	// Scores are wiped now, so a penalty pass for the closure day would
	// charge everyone against an empty board. Mark the day as skipped.
	if h.skipStore != nil {
		if err := h.skipStore.Add(ctx, timeutil.ToClub(podium.ClosedAt)); err != nil {
			return nil, fmt.Errorf("close_cycle: failed to mark skip day: %w", err)
		}
	}

	h.announce(ctx, podium)

	if h.eventPublisher != nil {
		_ = h.eventPublisher.Publish(shared.NewPuzzleCycleClosedEvent(
			week, memberIDs(podium.Gold), memberIDs(podium.Silver), memberIDs(podium.Bronze), memberIDs(podium.Last),
		))
	}

	return &ClosePuzzleCycleResult{Podium: podium, Players: len(played)}, nil
}

// settleRecords credits lifetime counters and clears per-cycle state.
func (h *ClosePuzzleCycleHandler) settleRecords(ctx context.Context, records []*puzzle.PlayerRecord, podium *puzzle.Podium) error {
	gold := idSet(podium.Gold)
	last := idSet(podium.Last)

	for _, r := range records {
		if gold[r.MemberID] {
			r.AwardWin()
		}
		if last[r.MemberID] {
			r.AwardLastPlace()
		}
		r.ResetCycle()

		if err := h.puzzleRepo.Upsert(ctx, r); err != nil {
			return fmt.Errorf("close_cycle: failed to store record for %s: %w", r.MemberID, err)
		}
	}
	return nil
}

// announce posts the podium to the puzzle channel.
func (h *ClosePuzzleCycleHandler) announce(ctx context.Context, podium *puzzle.Podium) {
	if h.notifier == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Puzzle cycle %s is settled.\n", podium.WeekKey)
	writePodiumLine(&b, "🥇", podium.Gold)
	writePodiumLine(&b, "🥈", podium.Silver)
	writePodiumLine(&b, "🥉", podium.Bronze)
	writePodiumLine(&b, "Last place", podium.Last)

	_, _ = h.notifier.Send(ctx, notification.ChannelPuzzle, b.String())
}

func writePodiumLine(b *strings.Builder, label string, members []puzzle.MemberID) {
	if len(members) == 0 {
		return
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.String()
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(names, ", "))
}

func idSet(members []puzzle.MemberID) map[puzzle.MemberID]bool {
	set := make(map[puzzle.MemberID]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	return set
}

func memberIDs(members []puzzle.MemberID) []int64 {
	ids := make([]int64, len(members))
	for i, m := range members {
		ids[i] = int64(m)
	}
	return ids
}
