package main

// OnboardingState tells the client where to send a freshly
// authenticated user.
type OnboardingState string

const (
	// StateNeedsRole means the user has no usable membership yet and
	// must pick a church and role before anything else.
	StateNeedsRole OnboardingState = "needs_role"

	// StateReady means the user has a profile and at least one role
	// grant and can land on their dashboard.
	StateReady OnboardingState = "ready"
)

// Route maps the state to the client path it should land on, so every
// screen consumes the same decision.
func (s OnboardingState) Route() string {
	if s == StateReady {
		return "/dashboard"
	}
	return "/onboarding"
}

// evaluateOnboarding derives the routing state from what exists in the
// store. A profile without any role grant still counts as incomplete;
// enrollment writes both together, so this only happens after a partial
// failure, and routing back to role selection lets enrollment repair it.
func evaluateOnboarding(profileExists bool, roleCount int) OnboardingState {
	if !profileExists || roleCount == 0 {
		return StateNeedsRole
	}
	return StateReady
}
