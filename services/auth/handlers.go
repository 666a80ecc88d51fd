package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/faithtech/generations-platform/shared/middleware"
	"github.com/faithtech/generations-platform/shared/models"
	"github.com/faithtech/generations-platform/shared/utils"
)

var (
	cognitoClient  *cognitoidentityprovider.CognitoIdentityProvider
	circuitBreaker *utils.CircuitBreaker
)

// generateSecretHash creates a secret hash for Cognito authentication
func generateSecretHash(username string) string {
	clientSecret := os.Getenv("COGNITO_CLIENT_SECRET")
	clientID := os.Getenv("COGNITO_CLIENT_ID")

	if clientSecret == "" {
		return ""
	}

	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func init() {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
	})
	if err != nil {
		panic("Failed to create AWS session: " + err.Error())
	}
	cognitoClient = cognitoidentityprovider.New(sess)

	// Circuit breaker for Cognito calls (max 5 failures, 30 second reset)
	circuitBreaker = utils.NewCircuitBreaker(5, 30*time.Second)
}

// LoginRequest represents the login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignupRequest represents the self-serve signup request. Signup only
// creates the identity; church membership and roles come later through
// enrollment.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// handleSignup registers a bare identity with Cognito
func handleSignup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		signUpInput := &cognitoidentityprovider.SignUpInput{
			ClientId: aws.String(os.Getenv("COGNITO_CLIENT_ID")),
			Username: aws.String(req.Email),
			Password: aws.String(req.Password),
			UserAttributes: []*cognitoidentityprovider.AttributeType{
				{
					Name:  aws.String("email"),
					Value: aws.String(req.Email),
				},
			},
		}

		if secretHash := generateSecretHash(req.Email); secretHash != "" {
			signUpInput.SecretHash = aws.String(secretHash)
		}

		var signUpResult *cognitoidentityprovider.SignUpOutput
		err := circuitBreaker.Call(func() error {
			var cognitoErr error
			signUpResult, cognitoErr = cognitoClient.SignUp(signUpInput)
			return cognitoErr
		})

		if err != nil {
			if err == utils.ErrCircuitOpen {
				utils.ServiceUnavailableResponse(c, "Authentication service temporarily unavailable")
			} else {
				utils.BadRequestResponse(c, "Failed to sign up: "+err.Error())
			}
			return
		}

		utils.CreatedResponse(c, "Signup successful", map[string]interface{}{
			"cognito_user_id": *signUpResult.UserSub,
			"email":           req.Email,
			"message":         "Please confirm your email, then sign in to choose your church and role.",
		})
	}
}

// handleLogin handles user login with circuit breaker
func handleLogin(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		authParams := map[string]*string{
			"USERNAME": aws.String(req.Username),
			"PASSWORD": aws.String(req.Password),
		}

		if secretHash := generateSecretHash(req.Username); secretHash != "" {
			authParams["SECRET_HASH"] = aws.String(secretHash)
		}

		authInput := &cognitoidentityprovider.InitiateAuthInput{
			AuthFlow:       aws.String("USER_PASSWORD_AUTH"),
			ClientId:       aws.String(os.Getenv("COGNITO_CLIENT_ID")),
			AuthParameters: authParams,
		}

		var authResult *cognitoidentityprovider.InitiateAuthOutput
		err := circuitBreaker.Call(func() error {
			var cognitoErr error
			authResult, cognitoErr = cognitoClient.InitiateAuth(authInput)
			return cognitoErr
		})

		if err != nil {
			if err == utils.ErrCircuitOpen {
				utils.ServiceUnavailableResponse(c, "Authentication service temporarily unavailable")
			} else {
				utils.UnauthorizedResponse(c, "Invalid credentials")
			}
			return
		}

		accessToken := *authResult.AuthenticationResult.AccessToken

		cognitoID, err := extractCognitoIDFromToken(accessToken)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to extract user ID from token")
			return
		}

		userProfile, err := buildUserProfileFromDB(db, cognitoID, req.Username)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to build user profile")
			return
		}

		sessionTTL := time.Duration(*authResult.AuthenticationResult.ExpiresIn) * time.Second
		tokenSession, err := utils.CreateTokenSession(accessToken, userProfile, sessionTTL)
		if err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create session")
			return
		}

		// A user with no role grants has not finished onboarding yet;
		// the client routes on this without an extra round trip.
		onboardingState := "ready"
		if len(userProfile.Roles) == 0 {
			onboardingState = "needs_role"
		}

		response := map[string]interface{}{
			"access_token":     accessToken,
			"refresh_token":    *authResult.AuthenticationResult.RefreshToken,
			"expires_in":       *authResult.AuthenticationResult.ExpiresIn,
			"token_type":       "Bearer",
			"user_info":        userProfile,
			"session_id":       tokenSession.SessionID,
			"onboarding_state": onboardingState,
		}

		utils.OKResponse(c, "Login successful", response)
	}
}

// handleRefreshToken handles token refresh
func handleRefreshToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		authInput := &cognitoidentityprovider.InitiateAuthInput{
			AuthFlow: aws.String("REFRESH_TOKEN_AUTH"),
			ClientId: aws.String(os.Getenv("COGNITO_CLIENT_ID")),
			AuthParameters: map[string]*string{
				"REFRESH_TOKEN": aws.String(req.RefreshToken),
			},
		}

		authResult, err := cognitoClient.InitiateAuth(authInput)
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid refresh token")
			return
		}

		response := map[string]interface{}{
			"access_token": *authResult.AuthenticationResult.AccessToken,
			"expires_in":   *authResult.AuthenticationResult.ExpiresIn,
			"token_type":   "Bearer",
		}

		utils.OKResponse(c, "Token refreshed successfully", response)
	}
}

// handleConfirmEmail handles manual email confirmation (admin only)
func handleConfirmEmail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		err := circuitBreaker.Call(func() error {
			_, confirmErr := cognitoClient.AdminConfirmSignUp(&cognitoidentityprovider.AdminConfirmSignUpInput{
				UserPoolId: aws.String(os.Getenv("COGNITO_USER_POOL_ID")),
				Username:   aws.String(req.Username),
			})
			return confirmErr
		})

		if err != nil {
			utils.BadRequestResponse(c, "Failed to confirm email: "+err.Error())
			return
		}

		utils.OKResponse(c, "Email confirmed successfully", map[string]interface{}{
			"username": req.Username,
			"message":  "User can now login",
		})
	}
}

// handleRemoveMember removes a member from the admin's church: role
// grants and profile rows go first, then the Cognito identity. A
// failure after the database delete leaves a loginable identity with
// no membership, which onboarding status reports as needs_role.
func handleRemoveMember(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cognitoID := c.Param("id")

		churchID, err := middleware.GetChurchIDFromContext(c)
		if err != nil {
			utils.ForbiddenResponse(c, "No church membership")
			return
		}

		var profile models.Profile
		if err := db.Where("cognito_user_id = ? AND church_id = ?", cognitoID, churchID).First(&profile).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Member not found in this church")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to find member")
			}
			return
		}

		txErr := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("cognito_user_id = ? AND church_id = ?", cognitoID, churchID).
				Delete(&models.RoleAssignment{}).Error; err != nil {
				return err
			}
			return tx.Delete(&profile).Error
		})
		if txErr != nil {
			utils.InternalServerErrorResponse(c, "Failed to remove member")
			return
		}

		err = circuitBreaker.Call(func() error {
			_, deleteErr := cognitoClient.AdminDeleteUser(&cognitoidentityprovider.AdminDeleteUserInput{
				UserPoolId: aws.String(os.Getenv("COGNITO_USER_POOL_ID")),
				Username:   aws.String(cognitoID),
			})
			return deleteErr
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"cognito_user_id": cognitoID,
				"error":           err,
			}).Warn("Member rows removed but Cognito delete failed")
		}

		if err := utils.RevokeAllUserSessions(cognitoID); err != nil {
			logrus.WithField("error", err).Warn("Failed to revoke removed member sessions")
		}

		utils.OKResponse(c, "Member removed successfully", nil)
	}
}

// extractCognitoIDFromToken extracts the Cognito ID from a JWT token
func extractCognitoIDFromToken(tokenString string) (string, error) {
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims format")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("sub claim not found or not a string")
	}

	return sub, nil
}

// buildUserProfileFromDB assembles the session profile from the
// profiles and user_roles tables. A fresh signup has neither; that is
// a valid state, not an error.
func buildUserProfileFromDB(db *gorm.DB, cognitoID, email string) (models.UserProfile, error) {
	userProfile := models.UserProfile{
		CognitoID: cognitoID,
		Email:     email,
	}

	var assignments []models.RoleAssignment
	if err := db.Where("cognito_user_id = ?", cognitoID).Find(&assignments).Error; err != nil {
		return models.UserProfile{}, fmt.Errorf("failed to load role assignments: %w", err)
	}

	for _, assignment := range assignments {
		userProfile.Roles = append(userProfile.Roles, assignment.Role)
		if userProfile.ChurchID == nil {
			churchID := assignment.ChurchID
			userProfile.ChurchID = &churchID
		}
	}

	var profile models.Profile
	if err := db.Where("cognito_user_id = ?", cognitoID).First(&profile).Error; err == nil {
		userProfile.FirstName = profile.FirstName
		userProfile.LastName = profile.LastName
		if userProfile.ChurchID == nil {
			churchID := profile.ChurchID
			userProfile.ChurchID = &churchID
		}
	}

	return userProfile, nil
}

// handleLogout handles user logout and session revocation
func handleLogout(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken, exists := c.Get("access_token")
		if !exists {
			utils.UnauthorizedResponse(c, "No active session found")
			return
		}

		if err := utils.RevokeTokenSession(accessToken.(string)); err != nil {
			utils.InternalServerErrorResponse(c, "Failed to revoke session")
			return
		}

		utils.OKResponse(c, "Logout successful", map[string]interface{}{
			"message": "Session revoked successfully",
		})
	}
}

// handleGetSessions handles getting user's active sessions
func handleGetSessions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken, exists := c.Get("access_token")
		if !exists {
			utils.UnauthorizedResponse(c, "No active session found")
			return
		}

		tokenSession, err := utils.GetTokenSession(accessToken.(string))
		if err != nil {
			utils.NotFoundResponse(c, "Session not found")
			return
		}

		response := map[string]interface{}{
			"active_sessions": []map[string]interface{}{
				{
					"session_id":   tokenSession.SessionID,
					"created_at":   tokenSession.CreatedAt,
					"last_used_at": tokenSession.LastUsedAt,
					"expires_at":   tokenSession.ExpiresAt,
					"is_current":   true,
				},
			},
			"total_sessions": 1,
		}

		utils.OKResponse(c, "Sessions retrieved", response)
	}
}

// handleRevokeSession handles revoking a specific session
func handleRevokeSession(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("session_id")
		if sessionID == "" {
			utils.BadRequestResponse(c, "Session ID required")
			return
		}

		accessToken, exists := c.Get("access_token")
		if !exists {
			utils.UnauthorizedResponse(c, "No active session found")
			return
		}

		tokenSession, err := utils.GetTokenSession(accessToken.(string))
		if err != nil {
			utils.NotFoundResponse(c, "Session not found")
			return
		}

		if tokenSession.SessionID != sessionID {
			utils.ForbiddenResponse(c, "Can only revoke your own sessions")
			return
		}

		if err := utils.RevokeTokenSession(accessToken.(string)); err != nil {
			utils.InternalServerErrorResponse(c, "Failed to revoke session")
			return
		}

		utils.OKResponse(c, "Session revoked successfully", map[string]interface{}{
			"session_id": sessionID,
			"message":    "Session has been revoked",
		})
	}
}
