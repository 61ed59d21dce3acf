package command

import (
	"context"
	"fmt"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/challenge"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/participant"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/puzzle"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
	"github.com/loser-hub/loser-challenge-hub/pkg/timeutil"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// BACKUP / RESTORE
// Snapshots capture the mutable state an evaluation is about to consume:
// the roster, goal definitions, the current cycle's progress, the streak
// and the puzzle records. The append-only activity log and historical
// verdicts stay in the store and are not part of a snapshot.
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot is one exported backup document.
type Snapshot struct {
	ID           string                     `json:"id"`
	CreatedAt    time.Time                  `json:"created_at"`
	WeekKey      string                     `json:"week_key"`
	Participants []*participant.Participant `json:"participants"`
	Goals        []*goal.Goal               `json:"goals"`
	Progress     []*goal.ProgressEntry      `json:"progress"`
	Streak       *challenge.StreakState     `json:"streak"`
	Puzzles      []*puzzle.PlayerRecord     `json:"puzzles"`
}

// SnapshotStore persists exported snapshots. The production
// implementation writes timestamped JSON files.
type SnapshotStore interface {
	// Save persists the snapshot under its ID.
	Save(ctx context.Context, snapshot *Snapshot) error

	// Load returns the snapshot with the given ID.
	Load(ctx context.Context, id string) (*Snapshot, error)

	// List returns stored snapshot IDs, most recent first.
	List(ctx context.Context) ([]string, error)
}

// CreateBackupCommand exports the current state.
type CreateBackupCommand struct {
	// WeekKey selects which cycle's progress to capture.
	// Empty means the current cycle.
	WeekKey string
}

// CreateBackupResult reports the stored snapshot.
type CreateBackupResult struct {
	SnapshotID string
	WeekKey    string
	CreatedAt  time.Time
}

// CreateBackupHandler handles the CreateBackupCommand.
type CreateBackupHandler struct {
	participantRepo participant.Repository
	goalRepo        goal.Repository
	progressRepo    goal.ProgressRepository
	streakRepo      challenge.StreakRepository
	puzzleRepo      puzzle.Repository
	store           SnapshotStore
}

// NewCreateBackupHandler creates a new CreateBackupHandler.
func NewCreateBackupHandler(
	participantRepo participant.Repository,
	goalRepo goal.Repository,
	progressRepo goal.ProgressRepository,
	streakRepo challenge.StreakRepository,
	puzzleRepo puzzle.Repository,
	store SnapshotStore,
) *CreateBackupHandler {
	return &CreateBackupHandler{
		participantRepo: participantRepo,
		goalRepo:        goalRepo,
		progressRepo:    progressRepo,
		streakRepo:      streakRepo,
		puzzleRepo:      puzzleRepo,
		store:           store,
	}
}

// Handle exports a snapshot and stores it.
func (h *CreateBackupHandler) Handle(ctx context.Context, cmd CreateBackupCommand) (*CreateBackupResult, error) {
	week := cmd.WeekKey
	if week == "" {
		week = timeutil.CycleKey(timeutil.Now())
	}
	if !goal.WeekKey(week).IsValid() {
		return nil, fmt.Errorf("create_backup: %w", goal.ErrInvalidWeekKey)
	}

	snapshot := &Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: timeutil.Now(),
		WeekKey:   week,
	}

	var err error
	if snapshot.Participants, err = h.participantRepo.ListAll(ctx); err != nil {
		return nil, fmt.Errorf("create_backup: failed to export roster: %w", err)
	}
	if snapshot.Goals, err = h.goalRepo.ListAll(ctx); err != nil {
		return nil, fmt.Errorf("create_backup: failed to export goals: %w", err)
	}
	if snapshot.Progress, err = h.progressRepo.ListByWeek(ctx, goal.WeekKey(week)); err != nil {
		return nil, fmt.Errorf("create_backup: failed to export progress: %w", err)
	}
	if snapshot.Streak, err = h.streakRepo.Get(ctx); err != nil {
		return nil, fmt.Errorf("create_backup: failed to export streak: %w", err)
	}
	if snapshot.Puzzles, err = h.puzzleRepo.ListAll(ctx); err != nil {
		return nil, fmt.Errorf("create_backup: failed to export puzzle records: %w", err)
	}

	if err := h.store.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("create_backup: failed to store snapshot: %w", err)
	}

	return &CreateBackupResult{
		SnapshotID: snapshot.ID,
		WeekKey:    week,
		CreatedAt:  snapshot.CreatedAt,
	}, nil
}

// RestoreBackupCommand replays a stored snapshot into the store.
type RestoreBackupCommand struct {
	SnapshotID string
}

// Validate checks the command.
func (c RestoreBackupCommand) Validate() error {
	if c.SnapshotID == "" {
		return fmt.Errorf("restore_backup: snapshot id required: %w", shared.ErrInvalidInput)
	}
	return nil
}

// RestoreBackupResult reports what was written back.
type RestoreBackupResult struct {
	SnapshotID   string
	WeekKey      string
	Participants int
	Goals        int
	Progress     int
	Puzzles      int
}

// RestoreBackupHandler handles the RestoreBackupCommand.
type RestoreBackupHandler struct {
	participantRepo participant.Repository
	goalRepo        goal.Repository
	progressRepo    goal.ProgressRepository
	streakRepo      challenge.StreakRepository
	puzzleRepo      puzzle.Repository
	store           SnapshotStore
}

// NewRestoreBackupHandler creates a new RestoreBackupHandler.
func NewRestoreBackupHandler(
	participantRepo participant.Repository,
	goalRepo goal.Repository,
	progressRepo goal.ProgressRepository,
	streakRepo challenge.StreakRepository,
	puzzleRepo puzzle.Repository,
	store SnapshotStore,
) *RestoreBackupHandler {
	return &RestoreBackupHandler{
		participantRepo: participantRepo,
		goalRepo:        goalRepo,
		progressRepo:    progressRepo,
		streakRepo:      streakRepo,
		puzzleRepo:      puzzleRepo,
		store:           store,
	}
}

// Handle replays the snapshot. Rows are upserted over current state;
// the snapshot's cycle is cleared first so dropped entries do not
// survive the restore.
func (h *RestoreBackupHandler) Handle(ctx context.Context, cmd RestoreBackupCommand) (*RestoreBackupResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	snapshot, err := h.store.Load(ctx, cmd.SnapshotID)
	if err != nil {
		return nil, fmt.Errorf("restore_backup: failed to load snapshot: %w", err)
	}

	for _, p := range snapshot.Participants {
		if err := h.participantRepo.Upsert(ctx, p); err != nil {
			return nil, fmt.Errorf("restore_backup: failed to restore roster: %w", err)
		}
	}
	for _, g := range snapshot.Goals {
		if err := h.goalRepo.Upsert(ctx, g); err != nil {
			return nil, fmt.Errorf("restore_backup: failed to restore goals: %w", err)
		}
	}

	week := goal.WeekKey(snapshot.WeekKey)
	if err := h.progressRepo.ResetWeek(ctx, week); err != nil {
		return nil, fmt.Errorf("restore_backup: failed to clear cycle: %w", err)
	}
	for _, entry := range snapshot.Progress {
		if _, err := h.progressRepo.SetValue(ctx, entry.MemberID, entry.WeekKey, entry.GoalName, entry.Value); err != nil {
			return nil, fmt.Errorf("restore_backup: failed to restore progress: %w", err)
		}
		if entry.Done {
			if err := h.progressRepo.SetDone(ctx, entry.MemberID, entry.WeekKey, entry.GoalName); err != nil {
				return nil, fmt.Errorf("restore_backup: failed to restore completion: %w", err)
			}
		}
	}

	if snapshot.Streak != nil {
		if err := h.streakRepo.Save(ctx, snapshot.Streak); err != nil {
			return nil, fmt.Errorf("restore_backup: failed to restore streak: %w", err)
		}
	}
	for _, record := range snapshot.Puzzles {
		if err := h.puzzleRepo.Upsert(ctx, record); err != nil {
			return nil, fmt.Errorf("restore_backup: failed to restore puzzle records: %w", err)
		}
	}

	return &RestoreBackupResult{
		SnapshotID:   snapshot.ID,
		WeekKey:      snapshot.WeekKey,
		Participants: len(snapshot.Participants),
		Goals:        len(snapshot.Goals),
		Progress:     len(snapshot.Progress),
		Puzzles:      len(snapshot.Puzzles),
	}, nil
}
