package participant

import "context"

// Repository defines storage operations for the challenge roster.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Upsert creates the member's roster row or replaces it. Joining is
	// idempotent: re-joining an active member just refreshes the name.
	Upsert(ctx context.Context, p *Participant) error

	// Get returns the member's roster row.
	// Returns ErrNotFound if the member never joined.
	Get(ctx context.Context, memberID MemberID) (*Participant, error)

	// ListActive returns all active members.
	ListActive(ctx context.Context) ([]*Participant, error)

	// ListAll returns the full roster, including members who left.
	ListAll(ctx context.Context) ([]*Participant, error)

	// CountActive returns the number of active members.
	CountActive(ctx context.Context) (int, error)
}
