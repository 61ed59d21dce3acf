package eventhandler

import (
	"context"
	"log/slog"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/participant"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON CYCLE BOUNDARY HANDLER
//
// A settled verdict or a fresh week makes every cached summary on the
// roster stale at once, so the whole roster gets swept.
// ═══════════════════════════════════════════════════════════════════════════

// OnCycleBoundaryHandler sweeps cached member data when a weekly boundary
// event lands.
type OnCycleBoundaryHandler struct {
	participantRepo participant.Repository
	cache           goal.Cache
	logger          *slog.Logger
}

// NewOnCycleBoundaryHandler creates the handler.
func NewOnCycleBoundaryHandler(
	participantRepo participant.Repository,
	cache goal.Cache,
	logger *slog.Logger,
) *OnCycleBoundaryHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnCycleBoundaryHandler{
		participantRepo: participantRepo,
		cache:           cache,
		logger:          logger.With("handler", "on_cycle_boundary"),
	}
}

// EventTypes returns the event types this handler reacts to.
func (h *OnCycleBoundaryHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventCycleEvaluated,
		shared.EventCycleReset,
	}
}

// Handle implements shared.EventHandler.
func (h *OnCycleBoundaryHandler) Handle(event shared.Event) error {
	if h.cache == nil || h.participantRepo == nil {
		return nil
	}

	ctx := context.Background()

	roster, err := h.participantRepo.ListAll(ctx)
	if err != nil {
		h.logger.Error("failed to load roster for cache sweep", "error", err)
		return err
	}

	swept := 0
	for _, p := range roster {
		if err := h.cache.InvalidateMember(ctx, goal.MemberID(p.MemberID)); err != nil {
			h.logger.Warn("failed to invalidate member cache",
				"member_id", p.MemberID,
				"error", err,
			)
			continue
		}
		swept++
	}

	h.logger.Info("roster cache swept",
		"event_type", event.EventType(),
		"aggregate_id", event.AggregateID(),
		"swept", swept,
		"roster", len(roster),
	)

	return nil
}
