// Package postgres implements the PostgreSQL persistence layer.
package postgres

import (
	"context"
	"fmt"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/participant"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// PARTICIPANT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ParticipantRepository implements participant.Repository for PostgreSQL.
type ParticipantRepository struct {
	conn *Connection
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(conn *Connection) *ParticipantRepository {
	return &ParticipantRepository{conn: conn}
}

// Upsert creates or replaces the member's roster row.
func (r *ParticipantRepository) Upsert(ctx context.Context, p *participant.Participant) error {
	query := `
		INSERT INTO participants (member_id, display_name, active, skip_week, joined_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (member_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			active = EXCLUDED.active,
			skip_week = EXCLUDED.skip_week,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		int64(p.MemberID),
		p.DisplayName,
		p.Active,
		p.SkipWeek,
		p.JoinedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert participant: %w", err)
	}
	return nil
}

// Get returns the member's roster row.
func (r *ParticipantRepository) Get(ctx context.Context, memberID participant.MemberID) (*participant.Participant, error) {
	query := `
		SELECT member_id, display_name, active, skip_week, joined_at, updated_at
		FROM participants
		WHERE member_id = $1
	`

	row := r.conn.QueryRow(ctx, query, int64(memberID))
	p, err := scanParticipant(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, participant.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// ListActive returns all active members.
func (r *ParticipantRepository) ListActive(ctx context.Context) ([]*participant.Participant, error) {
	return r.list(ctx, `
		SELECT member_id, display_name, active, skip_week, joined_at, updated_at
		FROM participants
		WHERE active
		ORDER BY member_id
	`)
}

// ListAll returns the full roster, including members who left.
func (r *ParticipantRepository) ListAll(ctx context.Context) ([]*participant.Participant, error) {
	return r.list(ctx, `
		SELECT member_id, display_name, active, skip_week, joined_at, updated_at
		FROM participants
		ORDER BY member_id
	`)
}

// CountActive returns the number of active members.
func (r *ParticipantRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM participants WHERE active`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

func (r *ParticipantRepository) list(ctx context.Context, query string) ([]*participant.Participant, error) {
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var members []*participant.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		members = append(members, p)
	}
	return members, rows.Err()
}

func scanParticipant(row pgx.Row) (*participant.Participant, error) {
	var (
		p        participant.Participant
		memberID int64
	)
	err := row.Scan(&memberID, &p.DisplayName, &p.Active, &p.SkipWeek, &p.JoinedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.MemberID = participant.MemberID(memberID)
	return &p, nil
}
