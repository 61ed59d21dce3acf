package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/puzzle"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PUZZLE REPOSITORY IMPLEMENTATION
// A record row plus its per-day score rows are written together in one
// transaction; reads always load scores alongside the record.
// ══════════════════════════════════════════════════════════════════════════════

// PuzzleRepository implements puzzle.Repository for PostgreSQL.
type PuzzleRepository struct {
	conn *Connection
}

// NewPuzzleRepository creates a new PuzzleRepository.
func NewPuzzleRepository(conn *Connection) *PuzzleRepository {
	return &PuzzleRepository{conn: conn}
}

// Upsert stores the record and its scores, replacing previous state.
func (r *PuzzleRepository) Upsert(ctx context.Context, record *puzzle.PlayerRecord) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		query := `
			INSERT INTO puzzle_records (member_id, joined, games, total, wins, last_places, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (member_id) DO UPDATE SET
				joined = EXCLUDED.joined,
				games = EXCLUDED.games,
				total = EXCLUDED.total,
				wins = EXCLUDED.wins,
				last_places = EXCLUDED.last_places,
				updated_at = EXCLUDED.updated_at
		`
		_, err := tx.Exec(ctx, query,
			int64(record.MemberID),
			record.Joined,
			record.Games,
			record.Total,
			record.Wins,
			record.LastPlaces,
			record.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert puzzle record: %w", err)
		}

		// Replace the score set wholesale: resubmission and cycle reset
		// both reduce to "store what the entity now holds".
		if _, err := tx.Exec(ctx, `DELETE FROM puzzle_scores WHERE member_id = $1`, int64(record.MemberID)); err != nil {
			return fmt.Errorf("failed to clear puzzle scores: %w", err)
		}
		for index, score := range record.Scores {
			_, err := tx.Exec(ctx,
				`INSERT INTO puzzle_scores (member_id, puzzle_index, score) VALUES ($1, $2, $3)`,
				int64(record.MemberID), index, int(score),
			)
			if err != nil {
				return fmt.Errorf("failed to insert puzzle score: %w", err)
			}
		}
		return nil
	})
}

// Get returns the member's record with scores loaded.
func (r *PuzzleRepository) Get(ctx context.Context, memberID puzzle.MemberID) (*puzzle.PlayerRecord, error) {
	query := `
		SELECT member_id, joined, games, total, wins, last_places, updated_at
		FROM puzzle_records
		WHERE member_id = $1
	`

	row := r.conn.QueryRow(ctx, query, int64(memberID))
	record, err := scanPuzzleRecord(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, puzzle.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get puzzle record: %w", err)
	}

	if err := r.loadScores(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetOrCreate returns the member's record, creating an empty one if absent.
func (r *PuzzleRepository) GetOrCreate(ctx context.Context, memberID puzzle.MemberID) (*puzzle.PlayerRecord, error) {
	record, err := r.Get(ctx, memberID)
	if err == nil {
		return record, nil
	}
	if err != puzzle.ErrNotFound {
		return nil, err
	}

	fresh, err := puzzle.NewPlayerRecord(memberID)
	if err != nil {
		return nil, err
	}
	if err := r.Upsert(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

// ListAll returns every record with scores loaded.
func (r *PuzzleRepository) ListAll(ctx context.Context) ([]*puzzle.PlayerRecord, error) {
	return r.list(ctx, `
		SELECT member_id, joined, games, total, wins, last_places, updated_at
		FROM puzzle_records
		ORDER BY member_id
	`)
}

// ListJoined returns records of members opted into the penalty.
func (r *PuzzleRepository) ListJoined(ctx context.Context) ([]*puzzle.PlayerRecord, error) {
	return r.list(ctx, `
		SELECT member_id, joined, games, total, wins, last_places, updated_at
		FROM puzzle_records
		WHERE joined
		ORDER BY member_id
	`)
}

func (r *PuzzleRepository) list(ctx context.Context, query string) ([]*puzzle.PlayerRecord, error) {
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list puzzle records: %w", err)
	}
	defer rows.Close()

	var records []*puzzle.PlayerRecord
	for rows.Next() {
		record, err := scanPuzzleRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan puzzle record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, record := range records {
		if err := r.loadScores(ctx, record); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (r *PuzzleRepository) loadScores(ctx context.Context, record *puzzle.PlayerRecord) error {
	rows, err := r.conn.Query(ctx,
		`SELECT puzzle_index, score FROM puzzle_scores WHERE member_id = $1`,
		int64(record.MemberID),
	)
	if err != nil {
		return fmt.Errorf("failed to load puzzle scores: %w", err)
	}
	defer rows.Close()

	record.Scores = make(map[int]puzzle.Score)
	for rows.Next() {
		var (
			index int
			score int
		)
		if err := rows.Scan(&index, &score); err != nil {
			return fmt.Errorf("failed to scan puzzle score: %w", err)
		}
		record.Scores[index] = puzzle.Score(score)
	}
	return rows.Err()
}

func scanPuzzleRecord(row pgx.Row) (*puzzle.PlayerRecord, error) {
	var (
		record   puzzle.PlayerRecord
		memberID int64
	)
	err := row.Scan(&memberID, &record.Joined, &record.Games, &record.Total,
		&record.Wins, &record.LastPlaces, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}
	record.MemberID = puzzle.MemberID(memberID)
	return &record, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// PODIUM REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PodiumRepository implements puzzle.PodiumRepository for PostgreSQL.
type PodiumRepository struct {
	conn *Connection
}

// NewPodiumRepository creates a new PodiumRepository.
func NewPodiumRepository(conn *Connection) *PodiumRepository {
	return &PodiumRepository{conn: conn}
}

// Save stores the podium, replacing any previous one for the week.
func (r *PodiumRepository) Save(ctx context.Context, podium *puzzle.Podium) error {
	query := `
		INSERT INTO puzzle_podiums (week_key, gold, silver, bronze, last, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (week_key) DO UPDATE SET
			gold = EXCLUDED.gold,
			silver = EXCLUDED.silver,
			bronze = EXCLUDED.bronze,
			last = EXCLUDED.last,
			closed_at = EXCLUDED.closed_at
	`

	_, err := r.conn.Exec(ctx, query,
		podium.WeekKey,
		toIDSlice(podium.Gold),
		toIDSlice(podium.Silver),
		toIDSlice(podium.Bronze),
		toIDSlice(podium.Last),
		podium.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save podium: %w", err)
	}
	return nil
}

// GetLatest returns the most recently settled podium.
func (r *PodiumRepository) GetLatest(ctx context.Context) (*puzzle.Podium, error) {
	query := `
		SELECT week_key, gold, silver, bronze, last, closed_at
		FROM puzzle_podiums
		ORDER BY week_key DESC
		LIMIT 1
	`

	var (
		podium                     puzzle.Podium
		gold, silver, bronze, last []int64
	)
	err := r.conn.QueryRow(ctx, query).
		Scan(&podium.WeekKey, &gold, &silver, &bronze, &last, &podium.ClosedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, puzzle.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get podium: %w", err)
	}

	podium.Gold = toMemberIDs(gold)
	podium.Silver = toMemberIDs(silver)
	podium.Bronze = toMemberIDs(bronze)
	podium.Last = toMemberIDs(last)
	return &podium, nil
}

func toIDSlice(members []puzzle.MemberID) []int64 {
	out := make([]int64, len(members))
	for i, m := range members {
		out[i] = int64(m)
	}
	return out
}

func toMemberIDs(ids []int64) []puzzle.MemberID {
	out := make([]puzzle.MemberID, len(ids))
	for i, id := range ids {
		out[i] = puzzle.MemberID(id)
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// SKIP STORE IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// SkipStore implements puzzle.SkipStore for PostgreSQL.
type SkipStore struct {
	conn *Connection
}

// NewSkipStore creates a new SkipStore.
func NewSkipStore(conn *Connection) *SkipStore {
	return &SkipStore{conn: conn}
}

// Add marks a date to be skipped. Marking twice is a no-op.
func (s *SkipStore) Add(ctx context.Context, date time.Time) error {
	_, err := s.conn.Exec(ctx,
		`INSERT INTO skip_days (skip_date) VALUES ($1) ON CONFLICT (skip_date) DO NOTHING`,
		date.Format("2006-01-02"),
	)
	if err != nil {
		return fmt.Errorf("failed to add skip day: %w", err)
	}
	return nil
}

// Contains reports whether the date is marked, without consuming.
func (s *SkipStore) Contains(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	err := s.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM skip_days WHERE skip_date = $1)`,
		date.Format("2006-01-02"),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check skip day: %w", err)
	}
	return exists, nil
}

// Consume removes the marker for the date and reports whether one existed.
// The DELETE's row count makes the observation atomic: two concurrent
// consumers cannot both see the marker.
func (s *SkipStore) Consume(ctx context.Context, date time.Time) (bool, error) {
	tag, err := s.conn.Exec(ctx,
		`DELETE FROM skip_days WHERE skip_date = $1`,
		date.Format("2006-01-02"),
	)
	if err != nil {
		return false, fmt.Errorf("failed to consume skip day: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
