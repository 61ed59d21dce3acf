package puzzle

import "sort"

// ══════════════════════════════════════════════════════════════════════════════
// COMPETITION RANKING
// Lower cumulative score is better. Tied players share a rank, and the
// next distinct total's rank equals one plus the number of players
// ranked strictly above it: a two-way tie at the top reads 1,1,3.
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one player's input to ranking.
type Entry struct {
	MemberID MemberID
	Total    int
}

// Block is a set of players tied at one score.
type Block struct {
	// Rank - shared competition rank (1-based).
	Rank int

	// Total - the tied cumulative score.
	Total int

	// Members - everyone at this score, sorted by member ID.
	Members []MemberID
}

// Ranking is the settled order of one cycle.
type Ranking struct {
	Blocks []Block
}

// RankCycle sorts the entries ascending by total and groups them into
// contiguous tie blocks with competition ranks.
func RankCycle(entries []Entry) Ranking {
	if len(entries) == 0 {
		return Ranking{}
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Total != sorted[j].Total {
			return sorted[i].Total < sorted[j].Total
		}
		return sorted[i].MemberID < sorted[j].MemberID
	})

	var blocks []Block
	ranked := 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j].Total == sorted[i].Total {
			j++
		}

		block := Block{
			Rank:  ranked + 1,
			Total: sorted[i].Total,
		}
		for _, e := range sorted[i:j] {
			block.Members = append(block.Members, e.MemberID)
		}
		blocks = append(blocks, block)

		ranked += j - i
		i = j
	}

	return Ranking{Blocks: blocks}
}

// Gold returns the rank-1 block's members, or nil if nobody played.
func (r Ranking) Gold() []MemberID {
	return r.blockMembers(0)
}

// Silver returns the second distinct-rank block's members.
func (r Ranking) Silver() []MemberID {
	return r.blockMembers(1)
}

// Bronze returns the third distinct-rank block's members.
func (r Ranking) Bronze() []MemberID {
	return r.blockMembers(2)
}

func (r Ranking) blockMembers(i int) []MemberID {
	if i >= len(r.Blocks) {
		return nil
	}
	return r.Blocks[i].Members
}

// RankOf returns the competition rank of a member, or 0 if unranked.
func (r Ranking) RankOf(memberID MemberID) int {
	for _, b := range r.Blocks {
		for _, m := range b.Members {
			if m == memberID {
				return b.Rank
			}
		}
	}
	return 0
}

// LastPlace returns the members tied at the maximum total among players
// who logged at least one entry. Players with no games are not merely
// "worst by default"; they are excluded entirely.
func LastPlace(records []*PlayerRecord) []MemberID {
	maxTotal := 0
	found := false
	for _, rec := range records {
		if !rec.HasPlayed() {
			continue
		}
		if !found || rec.Total > maxTotal {
			maxTotal = rec.Total
			found = true
		}
	}
	if !found {
		return nil
	}

	var last []MemberID
	for _, rec := range records {
		if rec.HasPlayed() && rec.Total == maxTotal {
			last = append(last, rec.MemberID)
		}
	}
	sort.Slice(last, func(i, j int) bool { return last[i] < last[j] })
	return last
}
