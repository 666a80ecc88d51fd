package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchStatus represents the lifecycle state of a mentorship match
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusAccepted  MatchStatus = "accepted"
	MatchStatusActive    MatchStatus = "active"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusDeclined  MatchStatus = "declined"
)

// validMatchTransitions defines allowed status transitions.
// Key is current status, value is the list of allowed next statuses.
var validMatchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusPending:   {MatchStatusAccepted, MatchStatusDeclined},
	MatchStatusAccepted:  {MatchStatusActive, MatchStatusDeclined},
	MatchStatusActive:    {MatchStatusCompleted},
	MatchStatusCompleted: {}, // Terminal
	MatchStatusDeclined:  {}, // Terminal
}

// IsValid returns true if the status is a known match status
func (s MatchStatus) IsValid() bool {
	_, exists := validMatchTransitions[s]
	return exists
}

// IsTerminal returns true if no further transitions are allowed
func (s MatchStatus) IsTerminal() bool {
	return len(validMatchTransitions[s]) == 0 && s.IsValid()
}

// CanTransitionTo returns true if transition to the target status is allowed
func (s MatchStatus) CanTransitionTo(target MatchStatus) bool {
	for _, allowed := range validMatchTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Match links a mentor and mentee specialization within one church.
// Scoring fields are populated by the matching engine, which lives
// outside this codebase; admin-assisted matches leave them empty.
type Match struct {
	ID              uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ChurchID        uuid.UUID   `json:"church_id" gorm:"type:uuid;not null;index"`
	MentorProfileID uuid.UUID   `json:"mentor_profile_id" gorm:"type:uuid;not null;index"`
	MenteeProfileID uuid.UUID   `json:"mentee_profile_id" gorm:"type:uuid;not null;index"`
	Status          MatchStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	MatchScore      *float64    `json:"match_score,omitempty"`
	MatchReasons    StringSlice `json:"match_reasons,omitempty" gorm:"type:jsonb"`
	AdminNotes      *string     `json:"admin_notes,omitempty"`
	CreatedByAdmin  bool        `json:"created_by_admin" gorm:"default:false"`
	StartedAt       *time.Time  `json:"started_at,omitempty"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	Church        *Church        `json:"church,omitempty" gorm:"foreignKey:ChurchID"`
	MentorProfile *MentorProfile `json:"mentor_profile,omitempty" gorm:"foreignKey:MentorProfileID"`
	MenteeProfile *MenteeProfile `json:"mentee_profile,omitempty" gorm:"foreignKey:MenteeProfileID"`
}

func (Match) TableName() string {
	return "matches"
}
