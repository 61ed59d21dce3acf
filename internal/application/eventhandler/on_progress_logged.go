// Package eventhandler contains the handlers wired to the event bus. They
// run after commands commit: the command changes state and publishes, the
// handlers take care of the fallout like stale caches.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
	"github.com/loser-hub/loser-challenge-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PROGRESS LOGGED HANDLER
//
// Any progress write makes the member's cached goal list and summary stale.
// Dropping the cache here keeps the write path free of cache concerns.
// ═══════════════════════════════════════════════════════════════════════════

// OnProgressLoggedHandler invalidates a member's cached goals when their
// weekly progress changes.
type OnProgressLoggedHandler struct {
	cache  goal.Cache
	logger *slog.Logger
}

// NewOnProgressLoggedHandler creates the handler.
func NewOnProgressLoggedHandler(cache goal.Cache, logger *slog.Logger) *OnProgressLoggedHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &OnProgressLoggedHandler{
		cache:  cache,
		logger: logger.With("handler", "on_progress_logged"),
	}
}

// EventTypes returns the event types this handler reacts to.
func (h *OnProgressLoggedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventProgressLogged,
		shared.EventProgressUndone,
		shared.EventGoalCompleted,
		shared.EventGoalSet,
		shared.EventGoalRemoved,
	}
}

// Handle implements shared.EventHandler.
func (h *OnProgressLoggedHandler) Handle(event shared.Event) error {
	if h.cache == nil {
		return nil
	}

	memberID, ok := memberIDFromEvent(event)
	if !ok {
		h.logger.Warn("event carries no member id", "event_type", event.EventType())
		return nil
	}

	ctx := context.Background()
	if err := h.cache.InvalidateMember(ctx, goal.MemberID(memberID)); err != nil {
		h.logger.Error("failed to invalidate member cache",
			"member_id", memberID,
			"error", err,
		)
		return err
	}

	h.logger.Debug("member cache invalidated",
		"member_id", memberID,
		"event_type", event.EventType(),
	)

	return nil
}

// memberIDFromEvent extracts the member id from concrete or remote events.
func memberIDFromEvent(event shared.Event) (int64, bool) {
	switch e := event.(type) {
	case shared.ProgressLoggedEvent:
		return e.MemberID, true
	case shared.GoalCompletedEvent:
		return e.MemberID, true
	}

	// Events that crossed the Redis bus arrive as payload maps.
	raw, ok := event.Payload()["member_id"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}
	return 0, false
}
