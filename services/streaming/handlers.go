package main

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/faithtech/generations-platform/shared/models"
	"github.com/faithtech/generations-platform/shared/utils"
)

// handleGetStreamingStatus reports webhook connectivity
func handleGetStreamingStatus(client *NotificationClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := client.GetStatus()
		utils.OKResponse(c, "Streaming status retrieved successfully", status)
	}
}

// handleReconnectWebhook re-probes the notification endpoint
func handleReconnectWebhook(client *NotificationClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := client.Reconnect(); err != nil {
			utils.InternalServerErrorResponse(c, "Failed to reconnect: "+err.Error())
			return
		}

		utils.OKResponse(c, "Successfully reconnected to notification endpoint", nil)
	}
}

// handleGetDeliveryStats summarizes parked notification counts
func handleGetDeliveryStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var pending, resolved, failed int64
		db.Model(&models.FailedNotification{}).Where("status = ?", models.NotificationPending).Count(&pending)
		db.Model(&models.FailedNotification{}).Where("status = ?", models.NotificationResolved).Count(&resolved)
		db.Model(&models.FailedNotification{}).Where("status = ?", models.NotificationPermanentlyFailed).Count(&failed)

		utils.OKResponse(c, "Delivery stats retrieved successfully", map[string]interface{}{
			"pending":            pending,
			"resolved":           resolved,
			"permanently_failed": failed,
		})
	}
}
