package watermark

import "context"

// Repository defines storage for job watermarks.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Get returns the job's watermark, creating a never-ran marker if
	// the row does not exist yet.
	Get(ctx context.Context, jobID string) (*Watermark, error)

	// Save persists the watermark.
	Save(ctx context.Context, w *Watermark) error
}
