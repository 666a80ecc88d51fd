package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/faithtech/generations-platform/shared/middleware"
	"github.com/faithtech/generations-platform/shared/models"
	"github.com/faithtech/generations-platform/shared/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	// Initialize Redis for caching
	if err := utils.InitRedis(); err != nil {
		logrus.Warnf("Failed to connect to Redis, caching disabled: %v", err)
	}

	// Get AWS configuration
	awsRegion := os.Getenv("AWS_REGION")
	cognitoUserPoolID := os.Getenv("COGNITO_USER_POOL_ID")

	if awsRegion == "" || cognitoUserPoolID == "" {
		log.Fatal("AWS_REGION and COGNITO_USER_POOL_ID must be set")
	}

	// Initialize authentication middleware
	authMiddleware, err := middleware.NewAuthMiddleware(
		awsRegion,
		cognitoUserPoolID,
	)
	if err != nil {
		log.Fatal("Failed to initialize auth middleware:", err)
	}

	// Initialize service clients
	serviceClients := &ServiceClients{
		AuthService:      NewServiceClient(os.Getenv("AUTH_SERVICE_URL")),
		ChurchService:    NewServiceClient(os.Getenv("CHURCH_SERVICE_URL")),
		ProfileService:   NewServiceClient(os.Getenv("PROFILE_SERVICE_URL")),
		MatchService:     NewServiceClient(os.Getenv("MATCH_SERVICE_URL")),
		StreamingService: NewServiceClient(os.Getenv("STREAMING_SERVICE_URL")),
	}

	// Initialize Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "API Gateway is healthy", nil)
	})

	// Downstream service health summary
	router.GET("/health/services", func(c *gin.Context) {
		utils.OKResponse(c, "Service status retrieved", serviceClients.GetServiceStatus())
	})

	// Authentication routes
	auth := router.Group("/auth")
	{
		auth.POST("/signup", serviceClients.AuthService.ProxyRequest)
		auth.POST("/login", serviceClients.AuthService.ProxyRequest)
		auth.POST("/refresh", serviceClients.AuthService.ProxyRequest)
		auth.POST("/confirm", authMiddleware.RequireAuth(), authMiddleware.RequireRole(models.RoleAdmin), serviceClients.AuthService.ProxyRequest)
		auth.POST("/logout", authMiddleware.RequireAuth(), serviceClients.AuthService.ProxyRequest)
		auth.GET("/sessions", authMiddleware.RequireAuth(), serviceClients.AuthService.ProxyRequest)
		auth.DELETE("/sessions/:session_id", authMiddleware.RequireAuth(), serviceClients.AuthService.ProxyRequest)
	}

	// Member removal (church admin only)
	users := router.Group("/users")
	users.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRole(models.RoleAdmin))
	{
		users.DELETE("/:id", serviceClients.AuthService.ProxyRequest)
	}

	// Church routes
	churches := router.Group("/churches")
	{
		// Public: self-serve registration and the signup picker
		churches.POST("/register", serviceClients.ChurchService.ProxyRequest)
		churches.GET("/", serviceClients.ChurchService.ProxyRequest)

		// Church-scoped
		churches.GET("/:id", authMiddleware.RequireAuth(), authMiddleware.RequireChurchAccess(), serviceClients.ChurchService.ProxyRequest)
		churches.PUT("/:id", authMiddleware.RequireAuth(), authMiddleware.RequireChurchAdmin(), serviceClients.ChurchService.ProxyRequest)
		churches.GET("/:id/members", authMiddleware.RequireAuth(), authMiddleware.RequireChurchAdmin(), serviceClients.ChurchService.ProxyRequest)
	}

	// Topic catalog
	topics := router.Group("/topics")
	{
		topics.GET("/", serviceClients.ChurchService.ProxyRequest)
		topics.POST("/", authMiddleware.RequireAuth(), authMiddleware.RequireRole(models.RoleAdmin), serviceClients.ChurchService.ProxyRequest)
	}

	// Onboarding and profile routes
	router.GET("/onboarding/status", authMiddleware.RequireAuth(), serviceClients.ProfileService.ProxyRequest)
	router.GET("/dashboard", authMiddleware.RequireAuth(), serviceClients.ProfileService.ProxyRequest)

	profiles := router.Group("/profiles")
	profiles.Use(authMiddleware.RequireAuth())
	{
		profiles.POST("/enroll", serviceClients.ProfileService.ProxyRequest)
		profiles.GET("/me", serviceClients.ProfileService.ProxyRequest)
		profiles.PUT("/me/availability", authMiddleware.RequireRole(models.RoleMentor), serviceClients.ProfileService.ProxyRequest)
	}

	// Match routes
	matches := router.Group("/matches")
	matches.Use(authMiddleware.RequireAuth())
	{
		matches.GET("/", serviceClients.MatchService.ProxyRequest)
		matches.GET("/:id", serviceClients.MatchService.ProxyRequest)
		matches.POST("/", authMiddleware.RequireRole(models.RoleAdmin), serviceClients.MatchService.ProxyRequest)
		matches.PUT("/:id/status", authMiddleware.RequireRole(models.RoleAdmin), serviceClients.MatchService.ProxyRequest)
	}

	// Streaming observability routes (read-only, for monitoring)
	streaming := router.Group("/streaming")
	streaming.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRole(models.RoleAdmin))
	{
		streaming.GET("/status", serviceClients.StreamingService.ProxyRequest)
		streaming.GET("/stats", serviceClients.StreamingService.ProxyRequest)
	}

	// Start server
	port := os.Getenv("API_GATEWAY_PORT")
	if port == "" {
		port = "8080"
	}

	logrus.Infof("API Gateway starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start API Gateway:", err)
	}
}
