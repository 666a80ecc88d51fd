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
		utils.OKResponse(c, "Auth service is healthy", nil)
	})

	// Authentication routes
	auth := router.Group("/auth")
	{
		auth.POST("/signup", handleSignup(db))
		auth.POST("/login", handleLogin(db))
		auth.POST("/refresh", handleRefreshToken(db))
		auth.POST("/confirm", authMiddleware.RequireAuth(), authMiddleware.RequireRole(models.RoleAdmin), handleConfirmEmail(db))
		auth.POST("/logout", authMiddleware.RequireAuth(), handleLogout(db))
		auth.GET("/sessions", authMiddleware.RequireAuth(), handleGetSessions(db))
		auth.DELETE("/sessions/:session_id", authMiddleware.RequireAuth(), handleRevokeSession(db))
	}

	// Member removal (church admin only)
	users := router.Group("/users")
	users.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRole(models.RoleAdmin))
	{
		users.DELETE("/:id", handleRemoveMember(db))
	}

	// Start server
	port := os.Getenv("AUTH_SERVICE_PORT")
	if port == "" {
		port = "8001"
	}

	logrus.Infof("Auth service starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start auth service:", err)
	}
}
