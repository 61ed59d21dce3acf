// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/challenge"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VERDICT REPOSITORY IMPLEMENTATION
// Per-member results are stored as one JSONB document: verdicts are read
// back whole for summaries and never queried by individual goal.
// ══════════════════════════════════════════════════════════════════════════════

// VerdictRepository implements challenge.VerdictRepository for PostgreSQL.
type VerdictRepository struct {
	conn *Connection
}

// NewVerdictRepository creates a new VerdictRepository.
func NewVerdictRepository(conn *Connection) *VerdictRepository {
	return &VerdictRepository{conn: conn}
}

// memberResultDoc is the stored form of one member's evaluation.
type memberResultDoc struct {
	MemberID int64           `json:"member_id"`
	NoGoals  bool            `json:"no_goals,omitempty"`
	Goals    []goalResultDoc `json:"goals"`
}

type goalResultDoc struct {
	GoalName string `json:"goal_name"`
	Kind     string `json:"kind"`
	Target   int    `json:"target"`
	Value    int    `json:"value"`
	Done     bool   `json:"done"`
	Passed   bool   `json:"passed"`
}

// Upsert stores the verdict, replacing any previous one for the week.
func (r *VerdictRepository) Upsert(ctx context.Context, verdict *challenge.CycleVerdict) error {
	docs := make([]memberResultDoc, 0, len(verdict.Results))
	for _, m := range verdict.Results {
		doc := memberResultDoc{
			MemberID: int64(m.MemberID),
			NoGoals:  m.NoGoals,
			Goals:    make([]goalResultDoc, 0, len(m.Goals)),
		}
		for _, g := range m.Goals {
			doc.Goals = append(doc.Goals, goalResultDoc{
				GoalName: g.GoalName,
				Kind:     string(g.Kind),
				Target:   g.Target,
				Value:    g.Value,
				Done:     g.Done,
				Passed:   g.Passed,
			})
		}
		docs = append(docs, doc)
	}

	resultsJSON, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict results: %w", err)
	}

	query := `
		INSERT INTO cycle_verdicts (week_key, outcome, results, evaluated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (week_key) DO UPDATE SET
			outcome = EXCLUDED.outcome,
			results = EXCLUDED.results,
			evaluated_at = EXCLUDED.evaluated_at
	`

	_, err = r.conn.Exec(ctx, query,
		verdict.WeekKey.String(),
		string(verdict.Outcome),
		resultsJSON,
		verdict.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert verdict: %w", err)
	}
	return nil
}

// Get returns the verdict for the cycle.
func (r *VerdictRepository) Get(ctx context.Context, week goal.WeekKey) (*challenge.CycleVerdict, error) {
	query := `
		SELECT week_key, outcome, results, evaluated_at
		FROM cycle_verdicts
		WHERE week_key = $1
	`

	verdicts, err := r.collect(ctx, query, week.String())
	if err != nil {
		return nil, err
	}
	if len(verdicts) == 0 {
		return nil, shared.NewDomainError("challenge", "GetVerdict", shared.ErrNotFound, fmt.Sprintf("no verdict for week %s", week))
	}
	return verdicts[0], nil
}

// ListRecent returns the most recent verdicts, newest first.
func (r *VerdictRepository) ListRecent(ctx context.Context, limit int) ([]*challenge.CycleVerdict, error) {
	query := `
		SELECT week_key, outcome, results, evaluated_at
		FROM cycle_verdicts
		ORDER BY week_key DESC
		LIMIT $1
	`

	return r.collect(ctx, query, limit)
}

func (r *VerdictRepository) collect(ctx context.Context, query string, args ...interface{}) ([]*challenge.CycleVerdict, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	var verdicts []*challenge.CycleVerdict
	for rows.Next() {
		var (
			verdict     challenge.CycleVerdict
			week        string
			outcome     string
			resultsJSON []byte
		)
		if err := rows.Scan(&week, &outcome, &resultsJSON, &verdict.EvaluatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}

		var docs []memberResultDoc
		if err := json.Unmarshal(resultsJSON, &docs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal verdict results: %w", err)
		}

		verdict.WeekKey = goal.WeekKey(week)
		verdict.Outcome = challenge.Outcome(outcome)
		verdict.Results = make([]challenge.MemberResult, 0, len(docs))
		for _, doc := range docs {
			m := challenge.MemberResult{
				MemberID: goal.MemberID(doc.MemberID),
				NoGoals:  doc.NoGoals,
				Goals:    make([]challenge.GoalResult, 0, len(doc.Goals)),
			}
			for _, g := range doc.Goals {
				m.Goals = append(m.Goals, challenge.GoalResult{
					GoalName: g.GoalName,
					Kind:     goal.Kind(g.Kind),
					Target:   g.Target,
					Value:    g.Value,
					Done:     g.Done,
					Passed:   g.Passed,
				})
			}
			verdict.Results = append(verdict.Results, m)
		}
		verdicts = append(verdicts, &verdict)
	}
	return verdicts, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// STREAK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StreakRepository implements challenge.StreakRepository for PostgreSQL.
type StreakRepository struct {
	conn *Connection
}

// NewStreakRepository creates a new StreakRepository.
func NewStreakRepository(conn *Connection) *StreakRepository {
	return &StreakRepository{conn: conn}
}

// Get returns the streak record, creating a neutral one if absent.
func (r *StreakRepository) Get(ctx context.Context) (*challenge.StreakState, error) {
	query := `
		SELECT id, current, best, last_applied_week, updated_at
		FROM streak_state
		WHERE id = $1
	`

	var (
		state challenge.StreakState
		week  string
	)
	err := r.conn.QueryRow(ctx, query, challenge.TeamStreakID).
		Scan(&state.ID, &state.Current, &state.Best, &week, &state.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return challenge.NewStreakState(), nil
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	state.LastAppliedWeek = goal.WeekKey(week)
	return &state, nil
}

// Save persists the streak record.
func (r *StreakRepository) Save(ctx context.Context, state *challenge.StreakState) error {
	query := `
		INSERT INTO streak_state (id, current, best, last_applied_week, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			current = EXCLUDED.current,
			best = EXCLUDED.best,
			last_applied_week = EXCLUDED.last_applied_week,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		state.ID,
		state.Current,
		state.Best,
		state.LastAppliedWeek.String(),
		state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}
	return nil
}
