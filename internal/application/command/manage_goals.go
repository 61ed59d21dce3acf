// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
)

// ══════════════════════════════════════════════════════════════════════════════
// SET GOAL COMMAND
// Declares a goal or replaces an existing one with the same (owner, name)
// identity. Goals persist across cycles until removed.
// ══════════════════════════════════════════════════════════════════════════════

// SetGoalCommand contains the data to declare or replace a goal.
type SetGoalCommand struct {
	// MemberID is the Discord member declaring the goal.
	MemberID int64

	// Name is the goal's identifier within the member's set.
	Name string

	// Kind is "count" or "boolean".
	Kind string

	// Style is "incremental" or "weekly_final". Ignored for boolean goals.
	Style string

	// Target is the weekly quota for count goals.
	Target int

	// Unit is an optional label for count goals (e.g. "km").
	Unit string
}

// Validate validates the command.
func (c SetGoalCommand) Validate() error {
	if c.MemberID <= 0 {
		return errors.New("set_goal: member_id is required")
	}
	if c.Name == "" {
		return errors.New("set_goal: name is required")
	}
	if c.Kind == "" {
		return errors.New("set_goal: kind is required")
	}
	return nil
}

// SetGoalResult contains the result of declaring a goal.
type SetGoalResult struct {
	// Goal is the stored goal definition.
	Goal *goal.Goal

	// Replaced indicates an existing goal with this name was overwritten.
	Replaced bool
}

// SetGoalHandler handles the SetGoalCommand.
type SetGoalHandler struct {
	goalRepo goal.Repository
	cache    goal.Cache
}

// NewSetGoalHandler creates a new SetGoalHandler. The cache may be nil.
func NewSetGoalHandler(goalRepo goal.Repository, cache goal.Cache) *SetGoalHandler {
	return &SetGoalHandler{
		goalRepo: goalRepo,
		cache:    cache,
	}
}

// Handle executes the set goal command.
func (h *SetGoalHandler) Handle(ctx context.Context, cmd SetGoalCommand) (*SetGoalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("set_goal: validation failed: %w", err)
	}

	g, err := goal.NewGoal(goal.NewGoalParams{
		MemberID: goal.MemberID(cmd.MemberID),
		Name:     cmd.Name,
		Kind:     goal.Kind(cmd.Kind),
		Style:    goal.Style(cmd.Style),
		Target:   cmd.Target,
		Unit:     cmd.Unit,
	})
	if err != nil {
		return nil, fmt.Errorf("set_goal: %w", err)
	}

	replaced := false
	if existing, err := h.goalRepo.Get(ctx, g.MemberID, g.Name); err == nil && existing != nil {
		replaced = true
		g.CreatedAt = existing.CreatedAt
	}

	if err := h.goalRepo.Upsert(ctx, g); err != nil {
		return nil, fmt.Errorf("set_goal: failed to store goal: %w", err)
	}

	h.invalidate(ctx, g.MemberID)

	return &SetGoalResult{Goal: g, Replaced: replaced}, nil
}

func (h *SetGoalHandler) invalidate(ctx context.Context, memberID goal.MemberID) {
	if h.cache == nil {
		return
	}
	_ = h.cache.InvalidateMember(ctx, memberID)
}

// ══════════════════════════════════════════════════════════════════════════════
// REMOVE GOAL COMMAND
// Deletes the goal definition. Historical log events stay in the ledger.
// ══════════════════════════════════════════════════════════════════════════════

// RemoveGoalCommand contains the data to remove a goal.
type RemoveGoalCommand struct {
	// MemberID is the goal's owner.
	MemberID int64

	// Name is the goal to remove.
	Name string
}

// Validate validates the command.
func (c RemoveGoalCommand) Validate() error {
	if c.MemberID <= 0 {
		return errors.New("remove_goal: member_id is required")
	}
	if c.Name == "" {
		return errors.New("remove_goal: name is required")
	}
	return nil
}

// RemoveGoalResult contains the result of removing a goal.
type RemoveGoalResult struct {
	// Removed is the goal definition that was deleted.
	Removed *goal.Goal
}

// RemoveGoalHandler handles the RemoveGoalCommand.
type RemoveGoalHandler struct {
	goalRepo goal.Repository
	cache    goal.Cache
}

// NewRemoveGoalHandler creates a new RemoveGoalHandler. The cache may be nil.
func NewRemoveGoalHandler(goalRepo goal.Repository, cache goal.Cache) *RemoveGoalHandler {
	return &RemoveGoalHandler{
		goalRepo: goalRepo,
		cache:    cache,
	}
}

// Handle executes the remove goal command.
func (h *RemoveGoalHandler) Handle(ctx context.Context, cmd RemoveGoalCommand) (*RemoveGoalResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("remove_goal: validation failed: %w", err)
	}

	memberID := goal.MemberID(cmd.MemberID)

	g, err := h.goalRepo.Get(ctx, memberID, cmd.Name)
	if err != nil {
		return nil, fmt.Errorf("remove_goal: %w", err)
	}

	if err := h.goalRepo.Delete(ctx, memberID, cmd.Name); err != nil {
		return nil, fmt.Errorf("remove_goal: failed to delete goal: %w", err)
	}

	if h.cache != nil {
		_ = h.cache.InvalidateMember(ctx, memberID)
	}

	return &RemoveGoalResult{Removed: g}, nil
}
