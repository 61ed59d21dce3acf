package puzzle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankCycle_TieAtTop(t *testing.T) {
	ranking := RankCycle([]Entry{
		{MemberID: 1, Total: 3}, // A
		{MemberID: 2, Total: 3}, // B
		{MemberID: 3, Total: 5}, // C
	})

	assert.Len(t, ranking.Blocks, 2)
	assert.Equal(t, 1, ranking.RankOf(1))
	assert.Equal(t, 1, ranking.RankOf(2))
	assert.Equal(t, 3, ranking.RankOf(3), "rank after a 2-way tie skips to 3")
	assert.Equal(t, []MemberID{1, 2}, ranking.Gold())
	assert.Equal(t, []MemberID{3}, ranking.Silver())
	assert.Nil(t, ranking.Bronze())
}

func TestRankCycle_DistinctScores(t *testing.T) {
	ranking := RankCycle([]Entry{
		{MemberID: 4, Total: 20},
		{MemberID: 2, Total: 10},
		{MemberID: 3, Total: 15},
		{MemberID: 1, Total: 5},
	})

	assert.Equal(t, []MemberID{1}, ranking.Gold())
	assert.Equal(t, []MemberID{2}, ranking.Silver())
	assert.Equal(t, []MemberID{3}, ranking.Bronze())
	assert.Equal(t, 4, ranking.RankOf(4))
}

func TestRankCycle_MidTie(t *testing.T) {
	ranking := RankCycle([]Entry{
		{MemberID: 1, Total: 5},
		{MemberID: 2, Total: 8},
		{MemberID: 3, Total: 8},
		{MemberID: 4, Total: 12},
	})

	assert.Equal(t, 1, ranking.RankOf(1))
	assert.Equal(t, 2, ranking.RankOf(2))
	assert.Equal(t, 2, ranking.RankOf(3))
	assert.Equal(t, 4, ranking.RankOf(4), "two tied at rank 2 push the next to 4")
}

func TestRankCycle_Empty(t *testing.T) {
	ranking := RankCycle(nil)

	assert.Empty(t, ranking.Blocks)
	assert.Nil(t, ranking.Gold())
	assert.Equal(t, 0, ranking.RankOf(1))
}

func TestLastPlace_RequiresAtLeastOneEntry(t *testing.T) {
	played, _ := NewPlayerRecord(1)
	_, _ = played.RecordScore(100, 4)

	worst, _ := NewPlayerRecord(2)
	_, _ = worst.RecordScore(100, MissPenalty)

	idle, _ := NewPlayerRecord(3)
	idle.Joined = true // joined but never played

	last := LastPlace([]*PlayerRecord{played, worst, idle})

	assert.Equal(t, []MemberID{2}, last, "players with zero games are excluded")
}

func TestLastPlace_Tie(t *testing.T) {
	a, _ := NewPlayerRecord(1)
	_, _ = a.RecordScore(100, 6)

	b, _ := NewPlayerRecord(2)
	_, _ = b.RecordScore(100, 6)

	c, _ := NewPlayerRecord(3)
	_, _ = c.RecordScore(100, 2)

	assert.Equal(t, []MemberID{1, 2}, LastPlace([]*PlayerRecord{c, b, a}))
}

func TestLastPlace_NobodyPlayed(t *testing.T) {
	a, _ := NewPlayerRecord(1)
	assert.Nil(t, LastPlace([]*PlayerRecord{a}))
	assert.Nil(t, LastPlace(nil))
}
