package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/watermark"
)

// ══════════════════════════════════════════════════════════════════════════════
// WATERMARK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// WatermarkRepository implements watermark.Repository for PostgreSQL.
type WatermarkRepository struct {
	conn *Connection
}

// NewWatermarkRepository creates a new WatermarkRepository.
func NewWatermarkRepository(conn *Connection) *WatermarkRepository {
	return &WatermarkRepository{conn: conn}
}

// Get returns the job's watermark. A job that never ran gets a fresh
// never-ran marker; the row appears on the first Save.
func (r *WatermarkRepository) Get(ctx context.Context, jobID string) (*watermark.Watermark, error) {
	query := `
		SELECT job_id, last_run_date, updated_at
		FROM scheduler_watermarks
		WHERE job_id = $1
	`

	var (
		w       watermark.Watermark
		lastRun sql.NullTime
	)
	err := r.conn.QueryRow(ctx, query, jobID).Scan(&w.JobID, &lastRun, &w.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return watermark.NewWatermark(jobID)
		}
		return nil, fmt.Errorf("failed to get watermark: %w", err)
	}

	if lastRun.Valid {
		w.LastRunDate = lastRun.Time.UTC()
	}
	return &w, nil
}

// Save persists the watermark.
func (r *WatermarkRepository) Save(ctx context.Context, w *watermark.Watermark) error {
	query := `
		INSERT INTO scheduler_watermarks (job_id, last_run_date, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_id) DO UPDATE SET
			last_run_date = EXCLUDED.last_run_date,
			updated_at = EXCLUDED.updated_at
	`

	var lastRun sql.NullTime
	if !w.LastRunDate.IsZero() {
		lastRun = sql.NullTime{Time: w.LastRunDate, Valid: true}
	}
	updatedAt := w.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	if _, err := r.conn.Exec(ctx, query, w.JobID, lastRun, updatedAt); err != nil {
		return fmt.Errorf("failed to save watermark: %w", err)
	}
	return nil
}
