package models

import (
	"time"

	"github.com/google/uuid"
)

// Topic is a shared, church-independent interest category
type Topic struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Category  string    `json:"category" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Topic) TableName() string {
	return "topics"
}

// MentorTopic links a mentor specialization to a Topic
type MentorTopic struct {
	MentorProfileID uuid.UUID `json:"mentor_profile_id" gorm:"type:uuid;primaryKey"`
	TopicID         uuid.UUID `json:"topic_id" gorm:"type:uuid;primaryKey"`

	Topic *Topic `json:"topic,omitempty" gorm:"foreignKey:TopicID"`
}

func (MentorTopic) TableName() string {
	return "mentor_topics"
}

// MenteeTopic links a mentee specialization to a Topic
type MenteeTopic struct {
	MenteeProfileID uuid.UUID `json:"mentee_profile_id" gorm:"type:uuid;primaryKey"`
	TopicID         uuid.UUID `json:"topic_id" gorm:"type:uuid;primaryKey"`

	Topic *Topic `json:"topic,omitempty" gorm:"foreignKey:TopicID"`
}

func (MenteeTopic) TableName() string {
	return "mentee_topics"
}
