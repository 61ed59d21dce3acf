package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/loser-hub/loser-challenge-hub/internal/domain/puzzle"
)

// ══════════════════════════════════════════════════════════════════════════════
// PUZZLE STANDINGS QUERY
// The open cycle's leaderboard, ascending by cumulative score with tied
// members sharing a rank, plus the last settled podium.
// ══════════════════════════════════════════════════════════════════════════════

// GetPuzzleStandingsQuery contains the parameters for the leaderboard view.
type GetPuzzleStandingsQuery struct {
	// IncludePodium also loads the last settled podium.
	IncludePodium bool
}

// StandingDTO is one player's row on the board.
type StandingDTO struct {
	// Rank - competition rank: tied players share one, the next rank
	// skips past the tie block.
	Rank int `json:"rank"`

	MemberID int64 `json:"member_id"`

	// Total - cumulative score for the open cycle, lower is better.
	Total int `json:"total"`

	// Games - days scored this cycle.
	Games int `json:"games"`

	// Wins - lifetime cycle wins.
	Wins int `json:"wins"`

	// LastPlaces - lifetime last-place finishes.
	LastPlaces int `json:"last_places"`
}

// PodiumDTO is a settled cycle outcome.
type PodiumDTO struct {
	WeekKey string  `json:"week_key"`
	Gold    []int64 `json:"gold"`
	Silver  []int64 `json:"silver"`
	Bronze  []int64 `json:"bronze"`
	Last    []int64 `json:"last"`
}

// PuzzleStandingsDTO is the full leaderboard view.
type PuzzleStandingsDTO struct {
	Standings []StandingDTO `json:"standings"`

	// Podium - the last settled cycle, nil if none yet.
	Podium *PodiumDTO `json:"podium,omitempty"`
}

// GetPuzzleStandingsHandler handles the puzzle standings query.
type GetPuzzleStandingsHandler struct {
	puzzleRepo puzzle.Repository
	podiumRepo puzzle.PodiumRepository
}

// NewGetPuzzleStandingsHandler creates a new GetPuzzleStandingsHandler.
func NewGetPuzzleStandingsHandler(puzzleRepo puzzle.Repository, podiumRepo puzzle.PodiumRepository) *GetPuzzleStandingsHandler {
	return &GetPuzzleStandingsHandler{
		puzzleRepo: puzzleRepo,
		podiumRepo: podiumRepo,
	}
}

// Handle executes the puzzle standings query.
func (h *GetPuzzleStandingsHandler) Handle(ctx context.Context, q GetPuzzleStandingsQuery) (*PuzzleStandingsDTO, error) {
	records, err := h.puzzleRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("puzzle_standings: failed to load records: %w", err)
	}

	byID := make(map[puzzle.MemberID]*puzzle.PlayerRecord, len(records))
	entries := make([]puzzle.Entry, 0, len(records))
	for _, r := range records {
		if !r.HasPlayed() {
			continue
		}
		byID[r.MemberID] = r
		entries = append(entries, puzzle.Entry{MemberID: r.MemberID, Total: r.Total})
	}

	ranking := puzzle.RankCycle(entries)

	result := &PuzzleStandingsDTO{
		Standings: make([]StandingDTO, 0, len(entries)),
	}

	for _, block := range ranking.Blocks {
		for _, memberID := range block.Members {
			record := byID[memberID]
			result.Standings = append(result.Standings, StandingDTO{
				Rank:       block.Rank,
				MemberID:   int64(memberID),
				Total:      record.Total,
				Games:      record.Games,
				Wins:       record.Wins,
				LastPlaces: record.LastPlaces,
			})
		}
	}

	if q.IncludePodium {
		podium, err := h.podiumRepo.GetLatest(ctx)
		switch {
		case err == nil:
			result.Podium = &PodiumDTO{
				WeekKey: podium.WeekKey,
				Gold:    toInt64s(podium.Gold),
				Silver:  toInt64s(podium.Silver),
				Bronze:  toInt64s(podium.Bronze),
				Last:    toInt64s(podium.Last),
			}
		case errors.Is(err, puzzle.ErrNotFound):
			// no settled cycle yet
		default:
			return nil, fmt.Errorf("puzzle_standings: failed to load podium: %w", err)
		}
	}

	return result, nil
}

func toInt64s(members []puzzle.MemberID) []int64 {
	out := make([]int64, len(members))
	for i, m := range members {
		out[i] = int64(m)
	}
	return out
}
