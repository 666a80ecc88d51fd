package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// NotificationClient delivers onboarding events to the external
// notification webhook (email/SMS provider integration).
type NotificationClient struct {
	endpoint    string
	httpClient  *http.Client
	connected   bool
	lastSuccess time.Time
	lastError   error
	mutex       sync.RWMutex
}

// NewNotificationClient creates a new notification client
func NewNotificationClient(endpoint string) *NotificationClient {
	return &NotificationClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		connected: false,
	}
}

// SendOnboardingNotification posts an onboarding event to the webhook
func (c *NotificationClient) SendOnboardingNotification(event OnboardingEvent) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	payload := map[string]interface{}{
		"event_type": event.EventType,
		"data":       event,
		"timestamp":  time.Now(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		c.lastError = fmt.Errorf("failed to marshal notification: %w", err)
		return c.lastError
	}

	req, err := http.NewRequest("POST", c.endpoint+"/notifications", bytes.NewBuffer(jsonData))
	if err != nil {
		c.lastError = fmt.Errorf("failed to create request: %w", err)
		return c.lastError
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Church-ID", event.ChurchID.String())
	req.Header.Set("X-User-ID", event.CognitoUserID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.lastError = fmt.Errorf("failed to send notification: %w", err)
		return c.lastError
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.lastError = fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
		return c.lastError
	}

	c.connected = true
	c.lastSuccess = time.Now()
	c.lastError = nil
	return nil
}

// GetStatus returns the current connection status
func (c *NotificationClient) GetStatus() map[string]interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	status := map[string]interface{}{
		"connected":    c.connected,
		"endpoint":     c.endpoint,
		"last_success": c.lastSuccess,
	}
	if c.lastError != nil {
		status["last_error"] = c.lastError.Error()
	}
	return status
}

// Reconnect probes the notification endpoint's health check
func (c *NotificationClient) Reconnect() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	req, err := http.NewRequest("GET", c.endpoint+"/health", nil)
	if err != nil {
		c.lastError = fmt.Errorf("failed to create health check request: %w", err)
		return c.lastError
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.lastError = fmt.Errorf("health check failed: %w", err)
		return c.lastError
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.lastError = fmt.Errorf("health check returned status %d", resp.StatusCode)
		return c.lastError
	}

	c.connected = true
	c.lastSuccess = time.Now()
	c.lastError = nil
	return nil
}
