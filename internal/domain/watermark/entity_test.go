package watermark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestWatermark_NeverRanIsDue(t *testing.T) {
	w, err := NewWatermark(JobDailyPenalty)

	assert.NoError(t, err)
	assert.True(t, w.IsDue(date(2026, 9, 1)))
}

func TestWatermark_AdvanceOncePerDate(t *testing.T) {
	w, _ := NewWatermark(JobDailyPenalty)

	assert.NoError(t, w.Advance(date(2026, 9, 1)))
	assert.False(t, w.IsDue(date(2026, 9, 1)))
	assert.ErrorIs(t, w.Advance(date(2026, 9, 1)), ErrNotDue)

	assert.True(t, w.IsDue(date(2026, 9, 2)))
	assert.NoError(t, w.Advance(date(2026, 9, 2)))
}

func TestWatermark_TimeOfDayIgnored(t *testing.T) {
	w, _ := NewWatermark(JobResetWeek)

	assert.NoError(t, w.Advance(time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)))
	assert.False(t, w.IsDue(time.Date(2026, 9, 1, 23, 59, 0, 0, time.UTC)),
		"a later trigger on the same date is not due")
}

func TestWatermark_LateRunStillExecutes(t *testing.T) {
	w, _ := NewWatermark(JobEvaluateWeek)
	_ = w.Advance(date(2026, 8, 31))

	// The host slept through September 1st; the delayed trigger for
	// the 2nd must still run.
	assert.True(t, w.IsDue(date(2026, 9, 2)))
}

func TestNewWatermark_Validation(t *testing.T) {
	_, err := NewWatermark("")
	assert.ErrorIs(t, err, ErrInvalidJobID)
}
