package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const onboardingTopic = "onboarding-events"

// OnboardingEvent records an enrollment outcome for downstream
// notification delivery.
type OnboardingEvent struct {
	ID            string    `json:"id"`
	EventType     string    `json:"event_type"` // profile_created or profile_repaired
	ChurchID      uuid.UUID `json:"church_id"`
	CognitoUserID string    `json:"cognito_user_id"`
	ProfileID     uuid.UUID `json:"profile_id"`
	Role          string    `json:"role"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Timestamp     time.Time `json:"timestamp"`
}

// KafkaProducer publishes onboarding events through a worker pool so
// enrollment requests never block on the broker.
type KafkaProducer struct {
	writer       *kafka.Writer
	eventChan    chan OnboardingEvent
	workerCount  int
	shutdownChan chan struct{}
	wg           sync.WaitGroup
}

// NewKafkaProducer creates a new Kafka producer with worker pool
func NewKafkaProducer(broker string) (*KafkaProducer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	kp := &KafkaProducer{
		writer:       writer,
		eventChan:    make(chan OnboardingEvent, 1000),
		workerCount:  10,
		shutdownChan: make(chan struct{}),
	}

	kp.startWorkers()

	return kp, nil
}

func (kp *KafkaProducer) startWorkers() {
	for i := 0; i < kp.workerCount; i++ {
		kp.wg.Add(1)
		go kp.eventWorker(i)
	}

	logrus.Infof("Started %d onboarding event workers", kp.workerCount)
}

func (kp *KafkaProducer) eventWorker(id int) {
	defer kp.wg.Done()

	for {
		select {
		case event := <-kp.eventChan:
			if err := kp.sendEventSync(event); err != nil {
				logrus.WithFields(logrus.Fields{
					"worker": id,
					"event":  event.ID,
					"error":  err,
				}).Error("Failed to send onboarding event")
			}
		case <-kp.shutdownChan:
			return
		}
	}
}

// SendOnboardingEvent queues an event asynchronously (non-blocking).
// A full queue drops the event: notifications are best effort and must
// never fail an enrollment.
func (kp *KafkaProducer) SendOnboardingEvent(event OnboardingEvent) error {
	select {
	case kp.eventChan <- event:
		return nil
	default:
		return fmt.Errorf("onboarding event queue full, event dropped")
	}
}

func (kp *KafkaProducer) sendEventSync(event OnboardingEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal onboarding event: %w", err)
	}

	msg := kafka.Message{
		Topic: onboardingTopic,
		Key:   []byte(event.ChurchID.String()),
		Value: message,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "church_id", Value: []byte(event.ChurchID.String())},
			{Key: "cognito_user_id", Value: []byte(event.CognitoUserID)},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write onboarding event to Kafka: %w", err)
	}

	return nil
}

// Close gracefully shuts down the producer and its workers
func (kp *KafkaProducer) Close() error {
	close(kp.shutdownChan)
	kp.wg.Wait()
	close(kp.eventChan)

	if err := kp.writer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka writer: %w", err)
	}

	logrus.Info("Onboarding event producer shut down")
	return nil
}
