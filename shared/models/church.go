package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Church represents a tenant congregation in the multi-tenant system
type Church struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name         string         `json:"name" gorm:"not null"`
	Namespace    string         `json:"namespace" gorm:"uniqueIndex;not null"`
	Denomination *string        `json:"denomination,omitempty"`
	Location     *string        `json:"location,omitempty"`
	ContactEmail *string        `json:"contact_email,omitempty"`
	ContactPhone *string        `json:"contact_phone,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Relationships
	Profiles []Profile `json:"profiles,omitempty" gorm:"foreignKey:ChurchID"`
}

// TableName returns the table name for the Church model
func (Church) TableName() string {
	return "churches"
}
