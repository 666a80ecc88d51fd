package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AppRole is a capability granted to an identity within one church
type AppRole string

const (
	RoleAdmin  AppRole = "admin"
	RoleMentor AppRole = "mentor"
	RoleMentee AppRole = "mentee"
)

// IsValid reports whether the role is one of the known capability tags
func (r AppRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMentor, RoleMentee:
		return true
	}
	return false
}

// MeetingPreference enumerates how a mentor/mentee prefers to meet
type MeetingPreference string

const (
	MeetingOnline   MeetingPreference = "online"
	MeetingInPerson MeetingPreference = "in_person"
	MeetingHybrid   MeetingPreference = "hybrid"
)

func (m MeetingPreference) IsValid() bool {
	switch m {
	case MeetingOnline, MeetingInPerson, MeetingHybrid:
		return true
	}
	return false
}

// SpiritualLevel enumerates self-reported maturity stages
type SpiritualLevel string

const (
	LevelNewBeliever     SpiritualLevel = "new_believer"
	LevelGrowingBeliever SpiritualLevel = "growing_believer"
	LevelMatureBeliever  SpiritualLevel = "mature_believer"
)

func (s SpiritualLevel) IsValid() bool {
	switch s {
	case LevelNewBeliever, LevelGrowingBeliever, LevelMatureBeliever:
		return true
	}
	return false
}

// StringSlice stores a list of strings as a jsonb column
type StringSlice []string

// Value implements driver.Valuer for jsonb storage
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for jsonb storage
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return fmt.Errorf("unsupported type %T for StringSlice", value)
}

// Profile represents a person's base record within one church
type Profile struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ChurchID      uuid.UUID `json:"church_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_profiles_user_church"`
	CognitoUserID *string   `json:"cognito_user_id,omitempty" gorm:"type:varchar(255);uniqueIndex:idx_profiles_user_church"`
	FirstName     string    `json:"first_name" gorm:"not null"`
	LastName      string    `json:"last_name" gorm:"not null"`
	Email         string    `json:"email" gorm:"not null"`
	Phone         *string   `json:"phone,omitempty"`
	Bio           *string   `json:"bio,omitempty"`
	AvatarURL     *string   `json:"avatar_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relationships
	Church          *Church          `json:"church,omitempty" gorm:"foreignKey:ChurchID"`
	RoleAssignments []RoleAssignment `json:"role_assignments,omitempty" gorm:"foreignKey:CognitoUserID;references:CognitoUserID"`
}

func (Profile) TableName() string {
	return "profiles"
}

// FullName returns the display name for the profile
func (p *Profile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// RoleAssignment grants an identity a capability within one church
type RoleAssignment struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CognitoUserID string    `json:"cognito_user_id" gorm:"type:varchar(255);not null;index;uniqueIndex:idx_user_roles_unique"`
	ChurchID      uuid.UUID `json:"church_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_roles_unique"`
	Role          AppRole   `json:"role" gorm:"type:varchar(20);not null;uniqueIndex:idx_user_roles_unique"`
	CreatedAt     time.Time `json:"created_at"`

	Church *Church `json:"church,omitempty" gorm:"foreignKey:ChurchID"`
}

func (RoleAssignment) TableName() string {
	return "user_roles"
}

// MentorProfile is the mentor specialization extension of a Profile
type MentorProfile struct {
	ID                 uuid.UUID          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProfileID          uuid.UUID          `json:"profile_id" gorm:"type:uuid;not null;uniqueIndex"`
	ExperienceYears    *int               `json:"experience_years,omitempty"`
	MinistryArea       *string            `json:"ministry_area,omitempty"`
	MaxMentees         *int               `json:"max_mentees,omitempty"`
	HoursPerWeek       *int               `json:"hours_per_week,omitempty"`
	CadenceDescription *string            `json:"cadence_description,omitempty"`
	IsAvailable        bool               `json:"is_available" gorm:"default:true"`
	MeetingPreference  *MeetingPreference `json:"meeting_preference,omitempty" gorm:"type:varchar(20)"`
	SpiritualLevel     *SpiritualLevel    `json:"spiritual_level,omitempty" gorm:"type:varchar(30)"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`

	Profile *Profile      `json:"profile,omitempty" gorm:"foreignKey:ProfileID"`
	Topics  []MentorTopic `json:"topics,omitempty" gorm:"foreignKey:MentorProfileID"`
}

func (MentorProfile) TableName() string {
	return "mentor_profiles"
}

// MenteeProfile is the mentee specialization extension of a Profile
type MenteeProfile struct {
	ID                      uuid.UUID          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProfileID               uuid.UUID          `json:"profile_id" gorm:"type:uuid;not null;uniqueIndex"`
	Goals                   *string            `json:"goals,omitempty"`
	PreferredMentorGender   *string            `json:"preferred_mentor_gender,omitempty"`
	PreferredMentorAgeRange *string            `json:"preferred_mentor_age_range,omitempty"`
	MeetingPreference       *MeetingPreference `json:"meeting_preference,omitempty" gorm:"type:varchar(20)"`
	SpiritualLevel          *SpiritualLevel    `json:"spiritual_level,omitempty" gorm:"type:varchar(30)"`
	CreatedAt               time.Time          `json:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at"`

	Profile *Profile      `json:"profile,omitempty" gorm:"foreignKey:ProfileID"`
	Topics  []MenteeTopic `json:"topics,omitempty" gorm:"foreignKey:MenteeProfileID"`
}

func (MenteeProfile) TableName() string {
	return "mentee_profiles"
}

// ProfessionalAttributes holds optional professional facts about a Profile
type ProfessionalAttributes struct {
	ID              uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProfileID       uuid.UUID   `json:"profile_id" gorm:"type:uuid;not null;uniqueIndex"`
	Profession      *string     `json:"profession,omitempty"`
	Industry        *string     `json:"industry,omitempty"`
	YearsExperience *int        `json:"years_experience,omitempty"`
	Skills          StringSlice `json:"skills,omitempty" gorm:"type:jsonb"`
	CreatedAt       time.Time   `json:"created_at"`
}

func (ProfessionalAttributes) TableName() string {
	return "professional_attributes"
}

// LifeAttributes holds optional life-stage facts about a Profile
type LifeAttributes struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProfileID   uuid.UUID `json:"profile_id" gorm:"type:uuid;not null;uniqueIndex"`
	IsMarried   bool      `json:"is_married" gorm:"default:false"`
	HasChildren bool      `json:"has_children" gorm:"default:false"`
	IsRetired   bool      `json:"is_retired" gorm:"default:false"`
	CustomNotes *string   `json:"custom_notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (LifeAttributes) TableName() string {
	return "life_attributes"
}
