package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/faithtech/generations-platform/shared/config"
	"github.com/faithtech/generations-platform/shared/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	// Initialize database connection
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Initialize Kafka consumer with database connection
	kafkaConsumer, err := NewKafkaConsumer(os.Getenv("KAFKA_BROKER"), db)
	if err != nil {
		log.Fatal("Failed to initialize Kafka consumer:", err)
	}
	defer kafkaConsumer.Close()

	// Initialize notification webhook client
	notifier := NewNotificationClient(os.Getenv("NOTIFICATION_ENDPOINT"))

	// Start consuming onboarding events
	go kafkaConsumer.ConsumeOnboardingEvents(notifier)

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Streaming service is healthy", nil)
	})

	streaming := router.Group("/streaming")
	{
		streaming.GET("/status", handleGetStreamingStatus(notifier))
		streaming.POST("/reconnect", handleReconnectWebhook(notifier))
		streaming.GET("/stats", handleGetDeliveryStats(db))
	}

	// Start server
	port := os.Getenv("STREAMING_SERVICE_PORT")
	if port == "" {
		port = "8004"
	}

	logrus.Infof("Streaming service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start streaming service:", err)
	}
}
