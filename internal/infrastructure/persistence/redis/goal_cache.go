package redis

import (
	"context"
	"errors"
	"time"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/goal"
)

// GoalCache implements the goal.Cache interface using the generic Redis Cache.
// Goal entities serialize cleanly as JSON, so lists are stored whole under
// one key per member.
type GoalCache struct {
	cache *Cache
}

// NewGoalCache creates a new GoalCache.
func NewGoalCache(cache *Cache) *GoalCache {
	return &GoalCache{cache: cache}
}

// GetMember returns the cached goal list. A miss returns (nil, nil) so
// callers fall through to the repository without branching on errors.
func (g *GoalCache) GetMember(ctx context.Context, memberID goal.MemberID) ([]*goal.Goal, error) {
	var goals []*goal.Goal
	err := g.cache.Get(ctx, GoalsKey(int64(memberID)), &goals)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return goals, nil
}

// SetMember caches the member's goal list.
func (g *GoalCache) SetMember(ctx context.Context, memberID goal.MemberID, goals []*goal.Goal, ttl time.Duration) error {
	if goals == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = TTLGoalList
	}
	return g.cache.Set(ctx, GoalsKey(int64(memberID)), goals, ttl)
}

// InvalidateMember drops the cached list and any rendered summaries.
func (g *GoalCache) InvalidateMember(ctx context.Context, memberID goal.MemberID) error {
	if err := g.cache.Delete(ctx, GoalsKey(int64(memberID))); err != nil {
		return err
	}
	return g.cache.DeleteByPattern(ctx, SummaryKey(int64(memberID), "*"))
}
