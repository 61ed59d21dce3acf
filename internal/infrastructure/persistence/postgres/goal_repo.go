// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"fmt"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// GOAL REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GoalRepository implements goal.Repository for PostgreSQL.
type GoalRepository struct {
	conn *Connection
}

// NewGoalRepository creates a new GoalRepository.
func NewGoalRepository(conn *Connection) *GoalRepository {
	return &GoalRepository{conn: conn}
}

// Upsert declares the goal or replaces one with the same identity.
func (r *GoalRepository) Upsert(ctx context.Context, g *goal.Goal) error {
	query := `
		INSERT INTO goals (member_id, name, kind, style, target, unit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (member_id, name) DO UPDATE SET
			kind = EXCLUDED.kind,
			style = EXCLUDED.style,
			target = EXCLUDED.target,
			unit = EXCLUDED.unit,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		int64(g.MemberID),
		g.Name,
		string(g.Kind),
		string(g.Style),
		g.Target,
		g.Unit,
		g.CreatedAt,
		g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert goal: %w", err)
	}

	return nil
}

// Get returns the owner's goal with the given name.
func (r *GoalRepository) Get(ctx context.Context, memberID goal.MemberID, name string) (*goal.Goal, error) {
	query := `
		SELECT member_id, name, kind, style, target, unit, created_at, updated_at
		FROM goals
		WHERE member_id = $1 AND name = $2
	`

	row := r.conn.QueryRow(ctx, query, int64(memberID), name)
	g, err := scanGoal(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, goal.ErrGoalNotFound
		}
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return g, nil
}

// ListByMember returns all goals the member has declared.
func (r *GoalRepository) ListByMember(ctx context.Context, memberID goal.MemberID) ([]*goal.Goal, error) {
	query := `
		SELECT member_id, name, kind, style, target, unit, created_at, updated_at
		FROM goals
		WHERE member_id = $1
		ORDER BY name
	`

	rows, err := r.conn.Query(ctx, query, int64(memberID))
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	return collectGoals(rows)
}

// ListAll returns every declared goal ordered by owner.
func (r *GoalRepository) ListAll(ctx context.Context) ([]*goal.Goal, error) {
	query := `
		SELECT member_id, name, kind, style, target, unit, created_at, updated_at
		FROM goals
		ORDER BY member_id, name
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	return collectGoals(rows)
}

// Delete removes the goal definition.
func (r *GoalRepository) Delete(ctx context.Context, memberID goal.MemberID, name string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM goals WHERE member_id = $1 AND name = $2`, int64(memberID), name)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return goal.ErrGoalNotFound
	}
	return nil
}

// CountByMember returns how many goals the member has declared.
func (r *GoalRepository) CountByMember(ctx context.Context, memberID goal.MemberID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM goals WHERE member_id = $1`, int64(memberID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count goals: %w", err)
	}
	return count, nil
}

func scanGoal(row pgx.Row) (*goal.Goal, error) {
	var (
		g        goal.Goal
		memberID int64
		kind     string
		style    string
	)
	err := row.Scan(&memberID, &g.Name, &kind, &style, &g.Target, &g.Unit, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.MemberID = goal.MemberID(memberID)
	g.Kind = goal.Kind(kind)
	g.Style = goal.Style(style)
	return &g, nil
}

func collectGoals(rows pgx.Rows) ([]*goal.Goal, error) {
	var goals []*goal.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// All writes are single-statement upserts: the database is the
// concurrency control, last writer prevails per row.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements goal.ProgressRepository for PostgreSQL.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

// AddDelta applies a signed delta, clamping at zero, and returns the new value.
func (r *ProgressRepository) AddDelta(ctx context.Context, memberID goal.MemberID, week goal.WeekKey, goalName string, delta int) (int, error) {
	query := `
		INSERT INTO progress_entries (member_id, week_key, goal_name, value, updated_at)
		VALUES ($1, $2, $3, GREATEST($4, 0), NOW())
		ON CONFLICT (member_id, week_key, goal_name) DO UPDATE SET
			value = GREATEST(progress_entries.value + $4, 0),
			updated_at = NOW()
		RETURNING value
	`

	var value int
	err := r.conn.QueryRow(ctx, query, int64(memberID), week.String(), goalName, delta).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to apply delta: %w", err)
	}
	return value, nil
}

// SetValue overwrites the value, clamping at zero, and returns the stored value.
func (r *ProgressRepository) SetValue(ctx context.Context, memberID goal.MemberID, week goal.WeekKey, goalName string, value int) (int, error) {
	query := `
		INSERT INTO progress_entries (member_id, week_key, goal_name, value, updated_at)
		VALUES ($1, $2, $3, GREATEST($4, 0), NOW())
		ON CONFLICT (member_id, week_key, goal_name) DO UPDATE SET
			value = GREATEST($4, 0),
			updated_at = NOW()
		RETURNING value
	`

	var stored int
	err := r.conn.QueryRow(ctx, query, int64(memberID), week.String(), goalName, value).Scan(&stored)
	if err != nil {
		return 0, fmt.Errorf("failed to set value: %w", err)
	}
	return stored, nil
}

// SetDone records the boolean goal as complete. Idempotent.
func (r *ProgressRepository) SetDone(ctx context.Context, memberID goal.MemberID, week goal.WeekKey, goalName string) error {
	query := `
		INSERT INTO progress_entries (member_id, week_key, goal_name, done, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW())
		ON CONFLICT (member_id, week_key, goal_name) DO UPDATE SET
			done = TRUE,
			updated_at = NOW()
	`

	_, err := r.conn.Exec(ctx, query, int64(memberID), week.String(), goalName)
	if err != nil {
		return fmt.Errorf("failed to set done: %w", err)
	}
	return nil
}

// ClearDone removes the completion flag and reports whether one was set.
func (r *ProgressRepository) ClearDone(ctx context.Context, memberID goal.MemberID, week goal.WeekKey, goalName string) (bool, error) {
	query := `
		UPDATE progress_entries
		SET done = FALSE, updated_at = NOW()
		WHERE member_id = $1 AND week_key = $2 AND goal_name = $3 AND done
	`

	tag, err := r.conn.Exec(ctx, query, int64(memberID), week.String(), goalName)
	if err != nil {
		return false, fmt.Errorf("failed to clear done: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Get returns the entry for one goal in one cycle, or nil if absent.
func (r *ProgressRepository) Get(ctx context.Context, memberID goal.MemberID, week goal.WeekKey, goalName string) (*goal.ProgressEntry, error) {
	query := `
		SELECT member_id, week_key, goal_name, value, done, updated_at
		FROM progress_entries
		WHERE member_id = $1 AND week_key = $2 AND goal_name = $3
	`

	row := r.conn.QueryRow(ctx, query, int64(memberID), week.String(), goalName)
	entry, err := scanProgressEntry(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get progress entry: %w", err)
	}
	return entry, nil
}

// ListByWeek returns all entries recorded for the cycle.
func (r *ProgressRepository) ListByWeek(ctx context.Context, week goal.WeekKey) ([]*goal.ProgressEntry, error) {
	query := `
		SELECT member_id, week_key, goal_name, value, done, updated_at
		FROM progress_entries
		WHERE week_key = $1
		ORDER BY member_id, goal_name
	`

	rows, err := r.conn.Query(ctx, query, week.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list progress entries: %w", err)
	}
	defer rows.Close()

	return collectProgressEntries(rows)
}

// ListByMemberWeek returns the member's entries for the cycle.
func (r *ProgressRepository) ListByMemberWeek(ctx context.Context, memberID goal.MemberID, week goal.WeekKey) ([]*goal.ProgressEntry, error) {
	query := `
		SELECT member_id, week_key, goal_name, value, done, updated_at
		FROM progress_entries
		WHERE member_id = $1 AND week_key = $2
		ORDER BY goal_name
	`

	rows, err := r.conn.Query(ctx, query, int64(memberID), week.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list progress entries: %w", err)
	}
	defer rows.Close()

	return collectProgressEntries(rows)
}

// ResetWeek deletes all entries for the cycle.
func (r *ProgressRepository) ResetWeek(ctx context.Context, week goal.WeekKey) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM progress_entries WHERE week_key = $1`, week.String())
	if err != nil {
		return fmt.Errorf("failed to reset week: %w", err)
	}
	return nil
}

func scanProgressEntry(row pgx.Row) (*goal.ProgressEntry, error) {
	var (
		entry    goal.ProgressEntry
		memberID int64
		week     string
	)
	err := row.Scan(&memberID, &week, &entry.GoalName, &entry.Value, &entry.Done, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}
	entry.MemberID = goal.MemberID(memberID)
	entry.WeekKey = goal.WeekKey(week)
	return &entry, nil
}

func collectProgressEntries(rows pgx.Rows) ([]*goal.ProgressEntry, error) {
	var entries []*goal.ProgressEntry
	for rows.Next() {
		entry, err := scanProgressEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// LOG REPOSITORY IMPLEMENTATION
// The bigserial seq column carries insertion order; every read sorts by
// it, never by occurred_at.
// ══════════════════════════════════════════════════════════════════════════════

// LogRepository implements goal.LogRepository for PostgreSQL.
type LogRepository struct {
	conn *Connection
}

// NewLogRepository creates a new LogRepository.
func NewLogRepository(conn *Connection) *LogRepository {
	return &LogRepository{conn: conn}
}

// Append records a new ledger event.
func (r *LogRepository) Append(ctx context.Context, event *goal.LogEvent) error {
	query := `
		INSERT INTO log_events (id, member_id, week_key, goal_name, kind, amount, note, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.conn.Exec(ctx, query,
		event.ID,
		int64(event.MemberID),
		event.WeekKey.String(),
		event.GoalName,
		string(event.Kind),
		event.Amount,
		event.Note,
		event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append log event: %w", err)
	}
	return nil
}

// ListByMemberWeek returns a member's events for the cycle in insertion order.
func (r *LogRepository) ListByMemberWeek(ctx context.Context, memberID goal.MemberID, week goal.WeekKey) ([]*goal.LogEvent, error) {
	query := `
		SELECT id, member_id, week_key, goal_name, kind, amount, note, occurred_at
		FROM log_events
		WHERE member_id = $1 AND week_key = $2
		ORDER BY seq
	`

	rows, err := r.conn.Query(ctx, query, int64(memberID), week.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list log events: %w", err)
	}
	defer rows.Close()

	return collectLogEvents(rows)
}

// ListByWeek returns all events for the cycle in insertion order.
func (r *LogRepository) ListByWeek(ctx context.Context, week goal.WeekKey) ([]*goal.LogEvent, error) {
	query := `
		SELECT id, member_id, week_key, goal_name, kind, amount, note, occurred_at
		FROM log_events
		WHERE week_key = $1
		ORDER BY seq
	`

	rows, err := r.conn.Query(ctx, query, week.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list log events: %w", err)
	}
	defer rows.Close()

	return collectLogEvents(rows)
}

// LastNote returns the most recently inserted non-empty note this week.
func (r *LogRepository) LastNote(ctx context.Context, memberID goal.MemberID, week goal.WeekKey) (string, bool, error) {
	query := `
		SELECT note
		FROM log_events
		WHERE member_id = $1 AND week_key = $2 AND note <> ''
		ORDER BY seq DESC
		LIMIT 1
	`

	var note string
	err := r.conn.QueryRow(ctx, query, int64(memberID), week.String()).Scan(&note)
	if err != nil {
		if IsNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get last note: %w", err)
	}
	return note, true, nil
}

func collectLogEvents(rows pgx.Rows) ([]*goal.LogEvent, error) {
	var events []*goal.LogEvent
	for rows.Next() {
		var (
			event    goal.LogEvent
			memberID int64
			week     string
			kind     string
		)
		err := rows.Scan(&event.ID, &memberID, &week, &event.GoalName, &kind, &event.Amount, &event.Note, &event.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log event: %w", err)
		}
		event.MemberID = goal.MemberID(memberID)
		event.WeekKey = goal.WeekKey(week)
		event.Kind = goal.LogKind(kind)
		events = append(events, &event)
	}
	return events, rows.Err()
}
