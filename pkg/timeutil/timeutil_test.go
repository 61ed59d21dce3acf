package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfWeek_MondayAnchored(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"monday maps to itself", Date(2026, 8, 31), Date(2026, 8, 31)},
		{"wednesday maps back to monday", Date(2026, 9, 2), Date(2026, 8, 31)},
		{"sunday maps back six days", Date(2026, 9, 6), Date(2026, 8, 31)},
		{"midweek with time of day", DateTime(2026, 9, 3, 18, 45, 0), Date(2026, 8, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StartOfWeek(tt.in)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			assert.Equal(t, time.Monday, got.Weekday())
		})
	}
}

func TestEndOfWeek_SundayNight(t *testing.T) {
	end := EndOfWeek(Date(2026, 9, 2))
	assert.Equal(t, time.Sunday, end.Weekday())
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 6, end.Day())
}

func TestCycleKey(t *testing.T) {
	assert.Equal(t, "2026-08-31", CycleKey(Date(2026, 9, 4)))
	assert.Equal(t, "2026-08-31", CycleKey(Date(2026, 8, 31)))
}

func TestPrevCycleKey(t *testing.T) {
	assert.Equal(t, "2026-08-24", PrevCycleKey(Date(2026, 8, 31)))
	assert.Equal(t, "2026-08-24", PrevCycleKey(Date(2026, 9, 4)))
	assert.Equal(t, "2026-08-31", PrevCycleKey(Date(2026, 9, 7)))
}

func TestParseCycleKey(t *testing.T) {
	monday, err := ParseCycleKey("2026-08-31")
	assert.NoError(t, err)
	assert.Equal(t, time.Monday, monday.Weekday())

	_, err = ParseCycleKey("2026-09-01")
	assert.Error(t, err, "a Tuesday is not a valid cycle key")

	_, err = ParseCycleKey("not-a-date")
	assert.Error(t, err)
}

func TestPuzzleIndex_Epoch(t *testing.T) {
	assert.Equal(t, 0, PuzzleIndex(Date(2021, 6, 19)))
	assert.Equal(t, 1, PuzzleIndex(Date(2021, 6, 20)))
	assert.Equal(t, 365, PuzzleIndex(Date(2022, 6, 19)))
	assert.Equal(t, -1, PuzzleIndex(Date(2021, 6, 18)))
}

func TestPuzzleIndex_IgnoresTimeOfDay(t *testing.T) {
	morning := DateTime(2021, 6, 20, 0, 1, 0)
	night := DateTime(2021, 6, 20, 23, 59, 59)
	assert.Equal(t, PuzzleIndex(morning), PuzzleIndex(night))
}

func TestPuzzleDate_RoundTrip(t *testing.T) {
	for _, idx := range []int{0, 1, 100, 1500} {
		assert.Equal(t, idx, PuzzleIndex(PuzzleDate(idx)))
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(Date(2026, 9, 1), Date(2026, 9, 1)))
	assert.Equal(t, 3, DaysBetween(Date(2026, 9, 1), Date(2026, 9, 4)))
	assert.Equal(t, 3, DaysBetween(Date(2026, 9, 4), Date(2026, 9, 1)))
}

func TestIsSameDay(t *testing.T) {
	assert.True(t, IsSameDay(DateTime(2026, 9, 1, 0, 0, 1), DateTime(2026, 9, 1, 23, 59, 0)))
	assert.False(t, IsSameDay(Date(2026, 9, 1), Date(2026, 9, 2)))
}

func TestIsWeekend(t *testing.T) {
	assert.False(t, IsWeekend(Date(2026, 9, 4))) // Friday
	assert.True(t, IsWeekend(Date(2026, 9, 5)))  // Saturday
	assert.True(t, IsWeekend(Date(2026, 9, 6)))  // Sunday
}

func TestFormatDateStr(t *testing.T) {
	assert.Equal(t, "2026-09-01", FormatDateStr(DateTime(2026, 9, 1, 15, 30, 0)))
}
