package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition("", SubStatusActive))
	assert.True(t, CanTransition(SubStatusActive, SubStatusActive))
	assert.True(t, CanTransition(SubStatusActive, SubStatusPastDue))
	assert.True(t, CanTransition(SubStatusPastDue, SubStatusActive))
	assert.True(t, CanTransition(SubStatusIncomplete, SubStatusActive))

	// Nothing leaves a terminal status.
	for _, to := range []SubscriptionStatus{SubStatusActive, SubStatusPastDue, SubStatusTrialing, SubStatusUnpaid} {
		assert.False(t, CanTransition(SubStatusCanceled, to), to)
		assert.False(t, CanTransition(SubStatusIncompleteExpired, to), to)
	}
	assert.False(t, CanTransition(SubStatusActive, SubStatusIncomplete))

	// A first payment that never succeeded must not reach a premium status
	// through past_due.
	assert.False(t, CanTransition(SubStatusIncomplete, SubStatusPastDue))
	assert.True(t, CanTransition(SubStatusPastDue, SubStatusIncompleteExpired))
}

func TestStatusGrantsPremium(t *testing.T) {
	granting := []SubscriptionStatus{SubStatusActive, SubStatusTrialing, SubStatusPastDue}
	for _, s := range granting {
		assert.True(t, s.GrantsPremium(), s)
	}
	denying := []SubscriptionStatus{SubStatusIncomplete, SubStatusIncompleteExpired, SubStatusUnpaid, SubStatusCanceled, SubStatusPaused}
	for _, s := range denying {
		assert.False(t, s.GrantsPremium(), s)
	}
	assert.True(t, SubStatusCanceled.IsTerminal())
	assert.False(t, SubStatusPastDue.IsTerminal())
}

func TestUserCanAccessPremium(t *testing.T) {
	assert.False(t, (&User{Role: RoleMember}).CanAccessPremium())
	assert.True(t, (&User{Role: RoleMember, IsPremium: true}).CanAccessPremium())
	assert.True(t, (&User{Role: RoleAdmin}).CanAccessPremium())
}

func TestSessionIsPreview(t *testing.T) {
	assert.True(t, (&ProgramSession{WeekNumber: 1}).IsPreview())
	assert.False(t, (&ProgramSession{WeekNumber: 2}).IsPreview())
}
