package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification delivery states for failed onboarding events
const (
	NotificationPending           = "pending"
	NotificationResolved          = "resolved"
	NotificationPermanentlyFailed = "permanently_failed"
)

// FailedNotification is a parked onboarding event whose webhook
// delivery failed and is awaiting retry.
type FailedNotification struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OriginalEventID string     `json:"original_event_id" gorm:"not null"`
	EventType       string     `json:"event_type" gorm:"not null"`
	ChurchID        uuid.UUID  `json:"church_id" gorm:"type:uuid;not null;index"`
	CognitoUserID   string     `json:"cognito_user_id" gorm:"not null"`
	ProfileID       uuid.UUID  `json:"profile_id" gorm:"type:uuid;not null"`
	Role            string     `json:"role"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name"`
	ErrorMessage    string     `json:"error_message" gorm:"not null"`
	RetryCount      int        `json:"retry_count" gorm:"default:0"`
	Status          string     `json:"status" gorm:"default:'pending';index"`
	NextRetryAt     *time.Time `json:"next_retry_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

func (FailedNotification) TableName() string {
	return "failed_notifications"
}
