// Package notification defines the outbound contracts the challenge engine
// uses to talk to the chat platform: posting rendered announcements to a
// channel and keeping the penalty marker role in sync with puzzle verdicts.
package notification

import (
	"context"
	"errors"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// CHANNELS
// ═══════════════════════════════════════════════════════════════════════════

// ChannelRef identifies a destination channel on the chat platform.
type ChannelRef string

const (
	// ChannelChallenge receives weekly verdicts, reminders and kickoffs.
	ChannelChallenge ChannelRef = "challenge"
	// ChannelPuzzle receives daily penalty notices and cycle podiums.
	ChannelPuzzle ChannelRef = "puzzle"
)

// ═══════════════════════════════════════════════════════════════════════════
// ERRORS
// ═══════════════════════════════════════════════════════════════════════════

var (
	ErrChannelUnavailable = errors.New("notification: channel unavailable")
	ErrDeliveryFailed     = errors.New("notification: delivery failed")
	ErrRateLimited        = errors.New("notification: rate limited")
	ErrUnknownChannel     = errors.New("notification: unknown channel")
)

// ═══════════════════════════════════════════════════════════════════════════
// CONTRACTS
// ═══════════════════════════════════════════════════════════════════════════

// DeliveryResult reports the outcome of a single send.
type DeliveryResult struct {
	MessageID   string
	DeliveredAt time.Time
}

// Notifier posts rendered text to a channel. Implementations are expected
// to retry transient failures themselves; callers treat a returned error
// as final for this attempt.
type Notifier interface {
	Send(ctx context.Context, channel ChannelRef, text string) (*DeliveryResult, error)
}

// RoleSync applies and clears the penalty marker on a member. Both calls
// are idempotent: marking an already marked member, or clearing an
// unmarked one, succeeds without effect.
type RoleSync interface {
	AddPenaltyMarker(ctx context.Context, memberID int64) error
	RemovePenaltyMarker(ctx context.Context, memberID int64) error
}
