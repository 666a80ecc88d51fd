package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/faithtech/generations-platform/shared/models"
	"github.com/faithtech/generations-platform/shared/utils"
)

var (
	cognitoClient  *cognitoidentityprovider.CognitoIdentityProvider
	circuitBreaker *utils.CircuitBreaker
)

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

// RegisterChurchRequest carries everything needed to provision a new
// congregation together with its first administrator account.
type RegisterChurchRequest struct {
	ChurchName   string  `json:"church_name" binding:"required"`
	Namespace    string  `json:"namespace" binding:"required"`
	Denomination *string `json:"denomination"`
	Location     *string `json:"location"`
	ContactEmail string  `json:"contact_email" binding:"required,email"`
	ContactPhone *string `json:"contact_phone"`

	AdminFirstName string `json:"admin_first_name" binding:"required"`
	AdminLastName  string `json:"admin_last_name" binding:"required"`
	AdminEmail     string `json:"admin_email" binding:"required,email"`
	AdminPassword  string `json:"admin_password" binding:"required,min=8"`
}

// UpdateChurchRequest represents the update church request
type UpdateChurchRequest struct {
	Name         *string `json:"name"`
	Denomination *string `json:"denomination"`
	Location     *string `json:"location"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
}

// newAdminProfile builds the founding admin's personal profile. The
// church's contact details stay on the church row; the admin's own
// phone is not collected at registration.
func newAdminProfile(req *RegisterChurchRequest, churchID uuid.UUID, cognitoUserID string) models.Profile {
	return models.Profile{
		ID:            uuid.New(),
		ChurchID:      churchID,
		CognitoUserID: &cognitoUserID,
		FirstName:     req.AdminFirstName,
		LastName:      req.AdminLastName,
		Email:         req.AdminEmail,
	}
}

// handleRegisterChurch provisions a church, its admin profile and the
// admin role grant. Identity is created in Cognito first; all database
// rows go in a single transaction, and the Cognito user is deleted if
// that transaction cannot commit.
func handleRegisterChurch(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterChurchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		namespace := normalizeNamespace(req.Namespace)
		if namespace == "" {
			utils.BadRequestResponse(c, "Namespace must contain at least one letter or digit")
			return
		}

		// Friendly pre-check; the unique index on churches.namespace is
		// the real guarantee under concurrent registration.
		var existing models.Church
		if err := db.Where("namespace = ?", namespace).First(&existing).Error; err == nil {
			utils.ConflictResponse(c, "Namespace already taken")
			return
		}

		userAttributes := []*cognitoidentityprovider.AttributeType{
			{
				Name:  aws.String("email"),
				Value: aws.String(req.AdminEmail),
			},
			{
				Name:  aws.String("custom:role"),
				Value: aws.String(string(models.RoleAdmin)),
			},
		}

		signUpInput := &cognitoidentityprovider.SignUpInput{
			ClientId:       aws.String(os.Getenv("COGNITO_CLIENT_ID")),
			Username:       aws.String(req.AdminEmail),
			Password:       aws.String(req.AdminPassword),
			UserAttributes: userAttributes,
		}

		if secretHash := generateSecretHash(req.AdminEmail); secretHash != "" {
			signUpInput.SecretHash = aws.String(secretHash)
		}

		var signUpResult *cognitoidentityprovider.SignUpOutput
		cognitoErr := circuitBreaker.Call(func() error {
			var err error
			signUpResult, err = cognitoClient.SignUp(signUpInput)
			return err
		})

		if cognitoErr != nil {
			if cognitoErr == utils.ErrCircuitOpen {
				utils.ServiceUnavailableResponse(c, "Authentication service temporarily unavailable")
			} else {
				utils.BadRequestResponse(c, "Failed to register admin account: "+cognitoErr.Error())
			}
			return
		}

		cognitoUserID := *signUpResult.UserSub

		church := models.Church{
			ID:           uuid.New(),
			Name:         req.ChurchName,
			Namespace:    namespace,
			Denomination: req.Denomination,
			Location:     req.Location,
			ContactEmail: &req.ContactEmail,
			ContactPhone: req.ContactPhone,
		}

		txErr := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&church).Error; err != nil {
				return err
			}

			profile := newAdminProfile(&req, church.ID, cognitoUserID)
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}

			grant := models.RoleAssignment{
				ID:            uuid.New(),
				CognitoUserID: cognitoUserID,
				ChurchID:      church.ID,
				Role:          models.RoleAdmin,
			}
			return tx.Create(&grant).Error
		})

		if txErr != nil {
			compensateErr := circuitBreaker.Call(func() error {
				_, deleteErr := cognitoClient.AdminDeleteUser(&cognitoidentityprovider.AdminDeleteUserInput{
					UserPoolId: aws.String(os.Getenv("COGNITO_USER_POOL_ID")),
					Username:   aws.String(req.AdminEmail),
				})
				return deleteErr
			})

			if compensateErr != nil {
				logrus.WithFields(logrus.Fields{
					"username": req.AdminEmail,
					"error":    compensateErr,
				}).Warn("Failed to compensate orphaned Cognito user")
			}

			utils.InternalServerErrorResponse(c, "Failed to complete church registration")
			return
		}

		// Stamp the church id onto the Cognito user so future tokens
		// carry membership without a database lookup. Best effort; the
		// middleware falls back to user_roles when the claim is missing.
		stampErr := circuitBreaker.Call(func() error {
			_, err := cognitoClient.AdminUpdateUserAttributes(&cognitoidentityprovider.AdminUpdateUserAttributesInput{
				UserPoolId: aws.String(os.Getenv("COGNITO_USER_POOL_ID")),
				Username:   aws.String(req.AdminEmail),
				UserAttributes: []*cognitoidentityprovider.AttributeType{
					{
						Name:  aws.String("custom:church_id"),
						Value: aws.String(church.ID.String()),
					},
				},
			})
			return err
		})
		if stampErr != nil {
			logrus.WithFields(logrus.Fields{
				"church_id": church.ID,
				"error":     stampErr,
			}).Warn("Failed to stamp church id on Cognito user")
		}

		utils.CreatedResponse(c, "Church registered successfully", map[string]interface{}{
			"church":          church,
			"cognito_user_id": cognitoUserID,
			"admin_email":     req.AdminEmail,
			"message":         "Please confirm the admin email before login.",
		})
	}
}

// handleGetChurches lists churches for the public signup picker
func handleGetChurches(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var churches []models.Church
		if err := db.Order("name asc").Find(&churches).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch churches")
			return
		}

		utils.OKResponse(c, "Churches retrieved successfully", churches)
	}
}

// handleGetChurch handles getting a specific church
func handleGetChurch(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		churchID := c.Param("id")

		var church models.Church
		if err := db.Where("id = ?", churchID).First(&church).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Church not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch church")
			}
			return
		}

		utils.OKResponse(c, "Church retrieved successfully", church)
	}
}

// handleUpdateChurch handles updating church details (church admin only).
// The namespace is immutable after registration; links and QR codes in
// the wild embed it.
func handleUpdateChurch(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		churchID := c.Param("id")

		var church models.Church
		if err := db.Where("id = ?", churchID).First(&church).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Church not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch church")
			}
			return
		}

		var req UpdateChurchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		if req.Name != nil {
			church.Name = *req.Name
		}
		if req.Denomination != nil {
			church.Denomination = req.Denomination
		}
		if req.Location != nil {
			church.Location = req.Location
		}
		if req.ContactEmail != nil {
			church.ContactEmail = req.ContactEmail
		}
		if req.ContactPhone != nil {
			church.ContactPhone = req.ContactPhone
		}

		if err := db.Save(&church).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update church")
			return
		}

		utils.OKResponse(c, "Church updated successfully", church)
	}
}

// handleGetChurchMembers lists profiles belonging to a church
func handleGetChurchMembers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		churchID := c.Param("id")

		var profiles []models.Profile
		if err := db.Where("church_id = ?", churchID).Order("last_name asc, first_name asc").Find(&profiles).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch church members")
			return
		}

		utils.OKResponse(c, "Church members retrieved successfully", profiles)
	}
}

// CreateTopicRequest represents the create topic request
type CreateTopicRequest struct {
	Category string `json:"category" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

// handleGetTopics lists the shared topic catalog ordered by category
func handleGetTopics(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var topics []models.Topic
		if err := db.Order("category asc, name asc").Find(&topics).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch topics")
			return
		}

		utils.OKResponse(c, "Topics retrieved successfully", topics)
	}
}

// handleCreateTopic adds a topic to the shared catalog (admin only)
func handleCreateTopic(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTopicRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		var existing models.Topic
		if err := db.Where("category = ? AND name = ?", req.Category, req.Name).First(&existing).Error; err == nil {
			utils.ConflictResponse(c, "Topic already exists")
			return
		}

		topic := models.Topic{
			ID:       uuid.New(),
			Category: req.Category,
			Name:     req.Name,
		}

		if err := db.Create(&topic).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create topic")
			return
		}

		utils.CreatedResponse(c, "Topic created successfully", topic)
	}
}
