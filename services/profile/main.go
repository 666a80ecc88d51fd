package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/faithtech/generations-platform/shared/config"
	"github.com/faithtech/generations-platform/shared/middleware"
	"github.com/faithtech/generations-platform/shared/models"
	"github.com/faithtech/generations-platform/shared/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	// Initialize Redis for session caching
	if err := utils.InitRedis(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer utils.CloseRedis()

	// Initialize database
	db, err := config.ConnectDatabase()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware(
		os.Getenv("AWS_REGION"),
		os.Getenv("COGNITO_USER_POOL_ID"),
	)
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	// Initialize Kafka producer for onboarding events
	kafkaProducer, err := NewKafkaProducer(os.Getenv("KAFKA_BROKER"))
	if err != nil {
		log.Fatal("Failed to initialize Kafka producer:", err)
	}
	defer kafkaProducer.Close()

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Profile service is healthy", nil)
	})

	// Onboarding routing state
	router.GET("/onboarding/status", authMiddleware.RequireAuth(), handleGetOnboardingStatus(db))

	profiles := router.Group("/profiles")
	profiles.Use(authMiddleware.RequireAuth())
	{
		profiles.POST("/enroll", handleEnroll(db, kafkaProducer))
		profiles.GET("/me", handleGetMyProfile(db))
		profiles.PUT("/me/availability", authMiddleware.RequireRole(models.RoleMentor), handleUpdateAvailability(db))
	}

	router.GET("/dashboard", authMiddleware.RequireAuth(), handleGetDashboard(db))

	// Start server
	port := os.Getenv("PROFILE_SERVICE_PORT")
	if port == "" {
		port = "8003"
	}

	logrus.Infof("Profile service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start profile service:", err)
	}
}
