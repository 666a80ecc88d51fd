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

	// Initialize Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Match service is healthy", nil)
	})

	matches := router.Group("/matches")
	matches.Use(authMiddleware.RequireAuth())
	{
		// Members see their church's matches; only admins change them
		matches.GET("/", handleGetMatches(db))
		matches.GET("/:id", handleGetMatch(db))
		matches.POST("/", authMiddleware.RequireRole(models.RoleAdmin), handleCreateMatch(db))
		matches.PUT("/:id/status", authMiddleware.RequireRole(models.RoleAdmin), handleUpdateMatchStatus(db))
	}

	// Start server
	port := os.Getenv("MATCH_SERVICE_PORT")
	if port == "" {
		port = "8005"
	}

	logrus.Infof("Match service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start match service:", err)
	}
}
