package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchStatusIsValid(t *testing.T) {
	for _, s := range []MatchStatus{MatchStatusPending, MatchStatusAccepted, MatchStatusActive, MatchStatusCompleted, MatchStatusDeclined} {
		assert.True(t, s.IsValid(), "%s should be valid", s)
	}
	assert.False(t, MatchStatus("cancelled").IsValid())
	assert.False(t, MatchStatus("").IsValid())
}

func TestMatchStatusTransitions(t *testing.T) {
	tests := []struct {
		from    MatchStatus
		to      MatchStatus
		allowed bool
	}{
		{MatchStatusPending, MatchStatusAccepted, true},
		{MatchStatusPending, MatchStatusDeclined, true},
		{MatchStatusPending, MatchStatusActive, false},
		{MatchStatusPending, MatchStatusCompleted, false},
		{MatchStatusAccepted, MatchStatusActive, true},
		{MatchStatusAccepted, MatchStatusDeclined, true},
		{MatchStatusAccepted, MatchStatusCompleted, false},
		{MatchStatusActive, MatchStatusCompleted, true},
		{MatchStatusActive, MatchStatusDeclined, false},
		{MatchStatusActive, MatchStatusPending, false},
		{MatchStatusCompleted, MatchStatusActive, false},
		{MatchStatusDeclined, MatchStatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestMatchStatusTerminal(t *testing.T) {
	assert.True(t, MatchStatusCompleted.IsTerminal())
	assert.True(t, MatchStatusDeclined.IsTerminal())
	assert.False(t, MatchStatusPending.IsTerminal())
	assert.False(t, MatchStatusAccepted.IsTerminal())
	assert.False(t, MatchStatusActive.IsTerminal())
	assert.False(t, MatchStatus("bogus").IsTerminal())
}
