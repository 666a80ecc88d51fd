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

	// Initialize Redis for session management
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

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Church service is healthy", nil)
	})

	churches := router.Group("/churches")
	{
		// Public routes: registration and the signup church picker
		churches.POST("/register", handleRegisterChurch(db))
		churches.GET("/", handleGetChurches(db))

		// Church-scoped routes
		churches.GET("/:id", authMiddleware.RequireAuth(), authMiddleware.RequireChurchAccess(), handleGetChurch(db))
		churches.PUT("/:id", authMiddleware.RequireAuth(), authMiddleware.RequireChurchAdmin(), handleUpdateChurch(db))
		churches.GET("/:id/members", authMiddleware.RequireAuth(), authMiddleware.RequireChurchAdmin(), handleGetChurchMembers(db))
	}

	topics := router.Group("/topics")
	{
		topics.GET("/", handleGetTopics(db))
		topics.POST("/", authMiddleware.RequireAuth(), authMiddleware.RequireRole(models.RoleAdmin), handleCreateTopic(db))
	}

	// Start server
	port := os.Getenv("CHURCH_SERVICE_PORT")
	if port == "" {
		port = "8002"
	}

	logrus.Infof("Church service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start church service:", err)
	}
}
