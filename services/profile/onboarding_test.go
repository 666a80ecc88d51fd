package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateOnboarding(t *testing.T) {
	tests := []struct {
		name          string
		profileExists bool
		roleCount     int
		expected      OnboardingState
	}{
		{"fresh signup", false, 0, StateNeedsRole},
		{"role grant without profile", false, 1, StateNeedsRole},
		{"profile without role grant", true, 0, StateNeedsRole},
		{"complete single role", true, 1, StateReady},
		{"complete multiple roles", true, 2, StateReady},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, evaluateOnboarding(tt.profileExists, tt.roleCount))
		})
	}
}

func TestOnboardingStateRoute(t *testing.T) {
	assert.Equal(t, "/onboarding", StateNeedsRole.Route())
	assert.Equal(t, "/dashboard", StateReady.Route())
	assert.Equal(t, "/onboarding", evaluateOnboarding(true, 0).Route())
	assert.Equal(t, "/dashboard", evaluateOnboarding(true, 1).Route())
}
