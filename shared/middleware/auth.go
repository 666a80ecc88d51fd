package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/faithtech/generations-platform/shared/models"
	"github.com/faithtech/generations-platform/shared/utils"
)

// AuthMiddleware handles JWT token validation and authorization
type AuthMiddleware struct {
	cognitoClient  *cognitoidentityprovider.CognitoIdentityProvider
	userPoolID     string
	db             *gorm.DB
	jwksValidator  *utils.JWKSValidator
	circuitBreaker *utils.CircuitBreaker
}

// CognitoClaims represents Cognito JWT claims plus membership resolved
// from the store
type CognitoClaims struct {
	Sub            string   `json:"sub"`
	Email          string   `json:"email"`
	Username       string   `json:"cognito:username"`
	TokenUse       string   `json:"token_use"`
	CustomChurchID string   `json:"custom:church_id"`
	Roles          []string `json:"roles"`
	jwt.RegisteredClaims
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(region, userPoolID string) (*AuthMiddleware, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	db, err := initDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &AuthMiddleware{
		cognitoClient:  cognitoidentityprovider.New(sess),
		userPoolID:     userPoolID,
		db:             db,
		jwksValidator:  utils.NewJWKSValidator(region, userPoolID),
		circuitBreaker: utils.NewCircuitBreaker(5, 30*time.Second),
	}, nil
}

// RequireAuth middleware validates JWT tokens and resolves the caller's
// church membership and roles
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			c.Abort()
			return
		}

		claims, err := am.resolveClaims(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("access_token", tokenString)
		c.Set("user_id", claims.Sub)
		c.Set("username", claims.Username)
		c.Set("email", claims.Email)
		c.Set("church_id", claims.CustomChurchID)
		c.Set("roles", claims.Roles)

		c.Next()
	}
}

// RequireRole middleware requires the caller to hold the given capability
// within their church
func (am *AuthMiddleware) RequireRole(requiredRole models.AppRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles := rolesFromContext(c)

		for _, role := range roles {
			if role == string(requiredRole) {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":         "Insufficient permissions",
			"required_role": requiredRole,
			"user_roles":    roles,
		})
		c.Abort()
	}
}

// RequireChurchAccess middleware restricts tenant-scoped routes to members
// of the church named by the :id route parameter
func (am *AuthMiddleware) RequireChurchAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		userChurchID := c.GetString("church_id")
		if userChurchID == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "No church membership"})
			c.Abort()
			return
		}

		requestedChurchID := c.Param("id")
		if requestedChurchID == "" {
			requestedChurchID = c.Param("church_id")
		}

		if requestedChurchID != "" && requestedChurchID != userChurchID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this church"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireChurchAdmin middleware allows only admins acting on their own church
func (am *AuthMiddleware) RequireChurchAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		roles := rolesFromContext(c)

		isAdmin := false
		for _, role := range roles {
			if role == string(models.RoleAdmin) {
				isAdmin = true
				break
			}
		}
		if !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error":         "Insufficient permissions",
				"required_role": models.RoleAdmin,
			})
			c.Abort()
			return
		}

		requestedChurchID := c.Param("id")
		userChurchID := c.GetString("church_id")
		if requestedChurchID != "" && requestedChurchID != userChurchID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admins can only manage their own church"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func getCacheKey(tokenString string) string {
	hash := sha256.Sum256([]byte(tokenString))
	return "token:" + hex.EncodeToString(hash[:])
}

// InvalidateClaimsCache drops the cached claims for a token. Called
// after operations that change the caller's roles or church membership
// so the next request re-resolves them from the store.
func InvalidateClaimsCache(tokenString string) error {
	return utils.CacheDelete(getCacheKey(tokenString))
}

// extractToken extracts the JWT token from the Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return authHeader
}

func rolesFromContext(c *gin.Context) []string {
	val, exists := c.Get("roles")
	if !exists {
		return nil
	}
	roles, _ := val.([]string)
	return roles
}

// resolveClaims parses the token and resolves church membership and roles.
// Self-serve users sign up before they belong to any church, so the token
// usually carries no custom attributes; membership comes from the
// profiles/user_roles tables and is cached in Redis against the token hash.
func (am *AuthMiddleware) resolveClaims(tokenString string) (*CognitoClaims, error) {
	cacheKey := getCacheKey(tokenString)
	if cachedData, err := utils.CacheGet(cacheKey); err == nil {
		var claims CognitoClaims
		if err := json.Unmarshal([]byte(cachedData), &claims); err == nil {
			return &claims, nil
		}
	}

	// Parse token without verification (we trust Cognito tokens).
	// validateSignature uses the JWKS validator for full verification.
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims format")
	}

	claims := &CognitoClaims{
		Sub:            getClaimString(mapClaims, "sub"),
		Email:          getClaimString(mapClaims, "email"),
		Username:       getClaimString(mapClaims, "cognito:username"),
		TokenUse:       getClaimString(mapClaims, "token_use"),
		CustomChurchID: getClaimString(mapClaims, "custom:church_id"),
	}
	if claims.Sub == "" {
		return nil, fmt.Errorf("sub claim missing")
	}

	// Resolve roles from the store; church id from roles when not in the token
	var assignments []models.RoleAssignment
	if err := am.db.Where("cognito_user_id = ?", claims.Sub).Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("failed to load role assignments: %w", err)
	}

	for _, assignment := range assignments {
		claims.Roles = append(claims.Roles, string(assignment.Role))
		if claims.CustomChurchID == "" {
			claims.CustomChurchID = assignment.ChurchID.String()
		}
	}

	if claims.CustomChurchID == "" {
		var profile models.Profile
		if err := am.db.Where("cognito_user_id = ?", claims.Sub).First(&profile).Error; err == nil {
			claims.CustomChurchID = profile.ChurchID.String()
		}
	}

	// Cache resolved claims briefly; onboarding changes them
	if cacheData, err := json.Marshal(claims); err == nil {
		_ = utils.CacheSet(cacheKey, string(cacheData), 5*time.Minute)
	}

	return claims, nil
}

// validateSignature verifies the token signature against the Cognito JWKS
func (am *AuthMiddleware) validateSignature(tokenString string) error {
	token, err := am.jwksValidator.ValidateToken(tokenString)
	if err != nil {
		return fmt.Errorf("JWKS validation failed: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fmt.Errorf("invalid token claims format")
	}

	tokenUse := getClaimString(mapClaims, "token_use")
	if tokenUse != "access" && tokenUse != "id" {
		return fmt.Errorf("invalid token use: expected 'access' or 'id', got '%s'", tokenUse)
	}

	return nil
}

// getClaimString safely extracts a string claim from JWT claims
func getClaimString(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetUserFromContext extracts user information from the Gin context
func GetUserFromContext(c *gin.Context) (cognitoID, email, churchID string, roles []string) {
	cognitoID = c.GetString("user_id")
	email = c.GetString("email")
	churchID = c.GetString("church_id")
	roles = rolesFromContext(c)
	return
}

// GetUserInfoFromContext extracts full user information from the Gin context
func GetUserInfoFromContext(c *gin.Context) (*models.UserInfo, error) {
	cognitoID := c.GetString("user_id")
	if cognitoID == "" {
		return nil, fmt.Errorf("user_id not found in context")
	}

	info := &models.UserInfo{
		CognitoID: cognitoID,
		Username:  c.GetString("username"),
		Email:     c.GetString("email"),
	}

	for _, role := range rolesFromContext(c) {
		info.Roles = append(info.Roles, models.AppRole(role))
	}

	if churchIDStr := c.GetString("church_id"); churchIDStr != "" {
		churchID, err := uuid.Parse(churchIDStr)
		if err != nil {
			return nil, fmt.Errorf("invalid church_id in context: %w", err)
		}
		info.ChurchID = &churchID
	}

	return info, nil
}

// GetChurchIDFromContext extracts the caller's church ID from the Gin context
func GetChurchIDFromContext(c *gin.Context) (uuid.UUID, error) {
	churchIDStr := c.GetString("church_id")
	if churchIDStr == "" {
		return uuid.Nil, fmt.Errorf("church_id not found in context")
	}

	return uuid.Parse(churchIDStr)
}

// initDatabase initializes the database connection used for membership lookups
func initDatabase() (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		getEnv("DB_HOST", "postgres"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "password"),
		getEnv("DB_NAME", "generations_db"),
		getEnv("DB_PORT", "5432"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
