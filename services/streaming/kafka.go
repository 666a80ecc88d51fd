package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/faithtech/generations-platform/shared/models"
)

// OnboardingEvent mirrors what the profile service publishes
type OnboardingEvent struct {
	ID            string    `json:"id"`
	EventType     string    `json:"event_type"`
	ChurchID      uuid.UUID `json:"church_id"`
	CognitoUserID string    `json:"cognito_user_id"`
	ProfileID     uuid.UUID `json:"profile_id"`
	Role          string    `json:"role"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Timestamp     time.Time `json:"timestamp"`
}

// KafkaConsumer handles Kafka message consumption
type KafkaConsumer struct {
	onboardingReader *kafka.Reader
	db               *gorm.DB
}

// NewKafkaConsumer creates a new Kafka consumer
func NewKafkaConsumer(broker string, db *gorm.DB) (*KafkaConsumer, error) {
	onboardingReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{broker},
		Topic:          "onboarding-events",
		GroupID:        "streaming-service",
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	if err := db.AutoMigrate(&models.FailedNotification{}); err != nil {
		return nil, err
	}

	return &KafkaConsumer{
		onboardingReader: onboardingReader,
		db:               db,
	}, nil
}

// ConsumeOnboardingEvents consumes onboarding events from Kafka and
// forwards them to the notification webhook. Failed deliveries are
// parked in failed_notifications for the retry consumer.
func (kc *KafkaConsumer) ConsumeOnboardingEvents(notifier *NotificationClient) {
	logrus.Info("Starting onboarding events consumer...")

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		msg, err := kc.onboardingReader.ReadMessage(ctx)
		cancel()

		if err != nil {
			// Timeouts just mean no messages are available
			if err == context.DeadlineExceeded || err.Error() == "context deadline exceeded" {
				continue
			}
			logrus.WithField("error", err).Error("Error reading onboarding message")
			time.Sleep(1 * time.Second)
			continue
		}

		var event OnboardingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logrus.WithField("error", err).Error("Error unmarshaling onboarding event")
			continue
		}

		if err := notifier.SendOnboardingNotification(event); err != nil {
			logrus.WithFields(logrus.Fields{
				"event_id": event.ID,
				"error":    err,
			}).Error("Error delivering onboarding notification")
			if dlqErr := kc.storeFailedNotification(event, err); dlqErr != nil {
				logrus.WithField("error", dlqErr).Error("Failed to park notification for retry")
			}
		} else {
			logrus.WithFields(logrus.Fields{
				"church_id":       event.ChurchID,
				"cognito_user_id": event.CognitoUserID,
				"event_type":      event.EventType,
			}).Info("Delivered onboarding notification")
		}
	}
}

// storeFailedNotification parks a failed delivery for the retry consumer
func (kc *KafkaConsumer) storeFailedNotification(event OnboardingEvent, deliveryErr error) error {
	nextRetryAt := time.Now().Add(1 * time.Minute)

	failed := models.FailedNotification{
		ID:              uuid.New(),
		OriginalEventID: event.ID,
		EventType:       event.EventType,
		ChurchID:        event.ChurchID,
		CognitoUserID:   event.CognitoUserID,
		ProfileID:       event.ProfileID,
		Role:            event.Role,
		Email:           event.Email,
		FullName:        event.FullName,
		ErrorMessage:    deliveryErr.Error(),
		Status:          models.NotificationPending,
		NextRetryAt:     &nextRetryAt,
	}

	return kc.db.Create(&failed).Error
}

// Close closes the Kafka consumer
func (kc *KafkaConsumer) Close() error {
	return kc.onboardingReader.Close()
}
