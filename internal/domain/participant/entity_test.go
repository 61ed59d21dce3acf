package participant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewParticipant(t *testing.T) {
	p, err := NewParticipant(1001, "  alice  ")

	assert.NoError(t, err)
	assert.Equal(t, "alice", p.DisplayName)
	assert.True(t, p.Active)
	assert.Empty(t, p.SkipWeek)
}

func TestNewParticipant_Validation(t *testing.T) {
	_, err := NewParticipant(0, "alice")
	assert.ErrorIs(t, err, ErrInvalidMemberID)

	_, err = NewParticipant(1001, "   ")
	assert.ErrorIs(t, err, ErrInvalidDisplayName)
}

func TestParticipant_LeaveAndRejoin(t *testing.T) {
	p, _ := NewParticipant(1001, "alice")

	assert.NoError(t, p.Leave())
	assert.False(t, p.Active)
	assert.ErrorIs(t, p.Leave(), ErrNotActive)

	p.Rejoin("alice2")
	assert.True(t, p.Active)
	assert.Equal(t, "alice2", p.DisplayName)
}

func TestParticipant_SkipWeek(t *testing.T) {
	p, _ := NewParticipant(1001, "alice")
	p.ExcuseWeek("2026-08-31")

	assert.False(t, p.IsEvaluated("2026-08-31"), "excused week does not count")
	assert.True(t, p.IsEvaluated("2026-09-07"), "other weeks still count")

	assert.True(t, p.ConsumeSkip("2026-08-31"))
	assert.Empty(t, p.SkipWeek)
	assert.False(t, p.ConsumeSkip("2026-08-31"), "a skip is consumed once")
	assert.True(t, p.IsEvaluated("2026-08-31"))
}

func TestParticipant_InactiveNotEvaluated(t *testing.T) {
	p, _ := NewParticipant(1001, "alice")
	_ = p.Leave()

	assert.False(t, p.IsEvaluated("2026-08-31"))
}
