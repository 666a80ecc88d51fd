package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/faithtech/generations-platform/shared/config"
	"github.com/faithtech/generations-platform/shared/models"
	"github.com/faithtech/generations-platform/shared/utils"
)

// RetryConsumer redelivers parked onboarding notifications
type RetryConsumer struct {
	db            *gorm.DB
	webhookURL    string
	httpClient    *http.Client
	maxRetries    int
	batchSize     int
	checkInterval time.Duration
}

// NewRetryConsumer creates a new retry consumer
func NewRetryConsumer() (*RetryConsumer, error) {
	db, err := config.ConnectDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.FailedNotification{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	webhookURL := os.Getenv("NOTIFICATION_ENDPOINT")
	if webhookURL == "" {
		webhookURL = "http://httpbin.org/post"
	}

	return &RetryConsumer{
		db:         db,
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries:    8,
		batchSize:     100,
		checkInterval: 30 * time.Second,
	}, nil
}

// ProcessFailedNotifications drains due retries on an interval
func (rc *RetryConsumer) ProcessFailedNotifications() {
	logrus.Info("Starting notification retry consumer...")

	for {
		var failed []models.FailedNotification
		err := rc.db.Where("status = ? AND next_retry_at <= ?", models.NotificationPending, time.Now()).
			Order("created_at asc").
			Limit(rc.batchSize).
			Find(&failed).Error

		if err != nil {
			logrus.WithField("error", err).Error("Error fetching failed notifications")
			time.Sleep(rc.checkInterval)
			continue
		}

		if len(failed) == 0 {
			time.Sleep(rc.checkInterval)
			continue
		}

		logrus.Infof("Processing %d failed notifications for retry", len(failed))

		for _, fn := range failed {
			if err := rc.retryNotification(fn); err != nil {
				logrus.WithFields(logrus.Fields{
					"id":    fn.ID,
					"error": err,
				}).Error("Failed to retry notification")
			}
		}

		time.Sleep(rc.checkInterval)
	}
}

// retryNotification attempts one redelivery. A profile that no longer
// exists means the member was removed; the notification is dropped as
// permanently failed rather than retried forever.
func (rc *RetryConsumer) retryNotification(failed models.FailedNotification) error {
	var profileCount int64
	if err := rc.db.Model(&models.Profile{}).Where("id = ?", failed.ProfileID).Count(&profileCount).Error; err == nil && profileCount == 0 {
		return rc.markPermanentlyFailed(failed, "Profile no longer exists")
	}

	if err := rc.sendToWebhook(failed); err != nil {
		return rc.updateRetryStatus(failed, err)
	}

	return rc.markResolved(failed)
}

// sendToWebhook posts the parked event to the notification endpoint
func (rc *RetryConsumer) sendToWebhook(failed models.FailedNotification) error {
	payload := map[string]interface{}{
		"event_type": failed.EventType,
		"data": map[string]interface{}{
			"id":              failed.OriginalEventID,
			"event_type":      failed.EventType,
			"church_id":       failed.ChurchID,
			"cognito_user_id": failed.CognitoUserID,
			"profile_id":      failed.ProfileID,
			"role":            failed.Role,
			"email":           failed.Email,
			"full_name":       failed.FullName,
		},
		"timestamp": time.Now(),
		"retry":     true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequest("POST", rc.webhookURL+"/notifications", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Church-ID", failed.ChurchID.String())
	req.Header.Set("X-User-ID", failed.CognitoUserID)

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}

	return nil
}

// updateRetryStatus bumps the retry count and schedules the next
// attempt with exponential backoff (1m, 2m, 4m, ...)
func (rc *RetryConsumer) updateRetryStatus(failed models.FailedNotification, err error) error {
	failed.RetryCount++
	failed.UpdatedAt = time.Now()

	if failed.RetryCount >= rc.maxRetries {
		failed.Status = models.NotificationPermanentlyFailed
		now := time.Now()
		failed.ResolvedAt = &now
		failed.ErrorMessage = fmt.Sprintf("Max retries reached: %s", err.Error())
	} else {
		baseDelay := 1 * time.Minute
		delay := baseDelay * time.Duration(1<<(failed.RetryCount-1))
		nextRetryAt := time.Now().Add(delay)
		failed.NextRetryAt = &nextRetryAt
		failed.ErrorMessage = err.Error()
	}

	return rc.db.Save(&failed).Error
}

// markResolved marks a parked notification as delivered
func (rc *RetryConsumer) markResolved(failed models.FailedNotification) error {
	now := time.Now()
	failed.Status = models.NotificationResolved
	failed.UpdatedAt = now
	failed.ResolvedAt = &now

	return rc.db.Save(&failed).Error
}

// markPermanentlyFailed stops retrying a parked notification
func (rc *RetryConsumer) markPermanentlyFailed(failed models.FailedNotification, reason string) error {
	now := time.Now()
	failed.Status = models.NotificationPermanentlyFailed
	failed.UpdatedAt = now
	failed.ResolvedAt = &now
	failed.ErrorMessage = reason

	return rc.db.Save(&failed).Error
}

// GetRetryStats returns retry statistics
func (rc *RetryConsumer) GetRetryStats() map[string]interface{} {
	var stats struct {
		Pending           int64 `json:"pending"`
		Resolved          int64 `json:"resolved"`
		PermanentlyFailed int64 `json:"permanently_failed"`
	}

	rc.db.Model(&models.FailedNotification{}).Where("status = ?", models.NotificationPending).Count(&stats.Pending)
	rc.db.Model(&models.FailedNotification{}).Where("status = ?", models.NotificationResolved).Count(&stats.Resolved)
	rc.db.Model(&models.FailedNotification{}).Where("status = ?", models.NotificationPermanentlyFailed).Count(&stats.PermanentlyFailed)

	return map[string]interface{}{
		"retry_stats": stats,
		"config": map[string]interface{}{
			"max_retries":    rc.maxRetries,
			"batch_size":     rc.batchSize,
			"check_interval": rc.checkInterval.String(),
		},
	}
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	// Initialize retry consumer
	retryConsumer, err := NewRetryConsumer()
	if err != nil {
		log.Fatal("Failed to create retry consumer:", err)
	}

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Retry consumer is healthy", nil)
	})

	// Retry statistics endpoint
	router.GET("/stats", func(c *gin.Context) {
		utils.OKResponse(c, "Retry stats retrieved", retryConsumer.GetRetryStats())
	})

	// Start retry consumer in background
	go retryConsumer.ProcessFailedNotifications()

	// Start HTTP server
	port := os.Getenv("RETRY_CONSUMER_PORT")
	if port == "" {
		port = "8006"
	}

	logrus.Infof("Retry consumer starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start retry consumer:", err)
	}
}
