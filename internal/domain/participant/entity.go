// Package participant contains the roster of members enrolled in the
// weekly challenge. Membership is explicit: members opt in and out, and
// leaving keeps the row around with its history intact.
package participant

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MemberID represents a unique Discord member identifier.
type MemberID int64

// IsValid checks that the member ID is positive.
func (m MemberID) IsValid() bool {
	return m > 0
}

// String returns the string representation of the ID.
func (m MemberID) String() string {
	return fmt.Sprintf("%d", m)
}

// Participant is one enrolled member.
type Participant struct {
	// MemberID - the Discord member.
	MemberID MemberID

	// DisplayName - name shown in summaries and announcements.
	DisplayName string

	// Active - false once the member has left. Inactive members keep
	// their row but are excluded from evaluation and reminders.
	Active bool

	// SkipWeek - the Monday key of a single week the member is excused
	// from, empty if none. Survives that week's evaluation and is
	// consumed by the reset that opens the following week.
	SkipWeek string

	// JoinedAt - when the member first opted in.
	JoinedAt time.Time

	// UpdatedAt - last modification time.
	UpdatedAt time.Time
}

var (
	// ErrInvalidMemberID - member ID must be positive.
	ErrInvalidMemberID = errors.New("invalid member id: must be positive")

	// ErrInvalidDisplayName - display name must be 1-100 chars.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrNotFound - member is not on the roster.
	ErrNotFound = errors.New("participant not found")

	// ErrNotActive - member has left the challenge.
	ErrNotActive = errors.New("participant is not active")
)

// NewParticipant enrolls a member, validating the fields.
func NewParticipant(memberID MemberID, displayName string) (*Participant, error) {
	if !memberID.IsValid() {
		return nil, ErrInvalidMemberID
	}

	name := strings.TrimSpace(displayName)
	if len(name) == 0 || len(name) > 100 {
		return nil, ErrInvalidDisplayName
	}

	now := time.Now().UTC()

	return &Participant{
		MemberID:    memberID,
		DisplayName: name,
		Active:      true,
		JoinedAt:    now,
		UpdatedAt:   now,
	}, nil
}

// Rejoin reactivates a member who previously left.
func (p *Participant) Rejoin(displayName string) {
	name := strings.TrimSpace(displayName)
	if name != "" {
		p.DisplayName = name
	}
	p.Active = true
	p.UpdatedAt = time.Now().UTC()
}

// Leave deactivates the member. History is kept.
func (p *Participant) Leave() error {
	if !p.Active {
		return ErrNotActive
	}
	p.Active = false
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ExcuseWeek marks one week the member sits out. Setting a new week
// replaces any pending excuse.
func (p *Participant) ExcuseWeek(weekKey string) {
	p.SkipWeek = weekKey
	p.UpdatedAt = time.Now().UTC()
}

// ConsumeSkip clears a pending excuse for the given week and reports
// whether one was present.
func (p *Participant) ConsumeSkip(weekKey string) bool {
	if p.SkipWeek != weekKey {
		return false
	}
	p.SkipWeek = ""
	p.UpdatedAt = time.Now().UTC()
	return true
}

// IsEvaluated reports whether the member counts toward the given week's
// team verdict.
func (p *Participant) IsEvaluated(weekKey string) bool {
	return p.Active && p.SkipWeek != weekKey
}

// String returns a representation for logging.
func (p *Participant) String() string {
	return fmt.Sprintf("Participant{Member: %s, Name: %q, Active: %t}", p.MemberID, p.DisplayName, p.Active)
}
