package models

import (
	"time"

	"github.com/google/uuid"
)

// UserInfo represents user information extracted from JWT claims
type UserInfo struct {
	CognitoID string     `json:"cognito_id"`
	Username  string     `json:"username,omitempty"`
	Email     string     `json:"email"`
	Roles     []AppRole  `json:"roles"`
	ChurchID  *uuid.UUID `json:"church_id,omitempty"`
}

// HasRole reports whether the user holds the given capability
func (ui *UserInfo) HasRole(role AppRole) bool {
	for _, r := range ui.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user administers a church
func (ui *UserInfo) IsAdmin() bool {
	return ui.HasRole(RoleAdmin)
}

// CanAccessChurch reports whether the user may read data of the given church
func (ui *UserInfo) CanAccessChurch(churchID uuid.UUID) bool {
	return ui.ChurchID != nil && *ui.ChurchID == churchID
}

// CanManageChurch reports whether the user may mutate the given church
func (ui *UserInfo) CanManageChurch(churchID uuid.UUID) bool {
	return ui.IsAdmin() && ui.CanAccessChurch(churchID)
}

// UserProfile represents the user profile stored in Redis
type UserProfile struct {
	CognitoID string     `json:"cognito_id"`
	Email     string     `json:"email"`
	Roles     []AppRole  `json:"roles"`
	ChurchID  *uuid.UUID `json:"church_id,omitempty"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
}

// TokenSession represents a session stored in Redis
type TokenSession struct {
	UserProfile UserProfile `json:"user_profile"`
	CreatedAt   time.Time   `json:"created_at"`
	LastUsedAt  time.Time   `json:"last_used_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
	SessionID   string      `json:"session_id"`
}

func (ts *TokenSession) IsExpired() bool {
	return time.Now().After(ts.ExpiresAt)
}

func (ts *TokenSession) UpdateLastUsed() {
	ts.LastUsedAt = time.Now()
}
