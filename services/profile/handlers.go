package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/faithtech/generations-platform/shared/middleware"
	"github.com/faithtech/generations-platform/shared/models"
	"github.com/faithtech/generations-platform/shared/utils"
)

// handleGetOnboardingStatus reports where the client should route a
// freshly authenticated user. Membership is read from the store, not
// the token: a user who enrolled seconds ago has stale claims.
func handleGetOnboardingStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cognitoID, _, _, _ := middleware.GetUserFromContext(c)
		if cognitoID == "" {
			utils.UnauthorizedResponse(c, "Authentication required")
			return
		}

		var roleCount int64
		if err := db.Model(&models.RoleAssignment{}).
			Where("cognito_user_id = ?", cognitoID).
			Count(&roleCount).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to check role assignments")
			return
		}

		var profile models.Profile
		profileExists := true
		if err := db.Where("cognito_user_id = ?", cognitoID).First(&profile).Error; err != nil {
			if err != gorm.ErrRecordNotFound {
				utils.InternalServerErrorResponse(c, "Failed to check profile")
				return
			}
			profileExists = false
		}

		state := evaluateOnboarding(profileExists, int(roleCount))

		response := map[string]interface{}{
			"state": state,
			"route": state.Route(),
		}
		if profileExists {
			response["church_id"] = profile.ChurchID
			response["profile_id"] = profile.ID
		}

		utils.OKResponse(c, "Onboarding status retrieved", response)
	}
}

// handleEnroll writes the full onboarding aggregate for the caller in
// the role named by the query parameter.
func handleEnroll(db *gorm.DB, kafkaProducer *KafkaProducer) gin.HandlerFunc {
	return func(c *gin.Context) {
		cognitoID, _, _, _ := middleware.GetUserFromContext(c)
		if cognitoID == "" {
			utils.UnauthorizedResponse(c, "Authentication required")
			return
		}

		role := models.AppRole(c.Query("role"))
		if role != models.RoleMentor && role != models.RoleMentee {
			utils.BadRequestResponse(c, "Query parameter 'role' must be 'mentor' or 'mentee'")
			return
		}

		var req EnrollRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		plan, err := buildEnrollmentPlan(&req, role)
		if err != nil {
			utils.BadRequestResponse(c, err.Error())
			return
		}

		var church models.Church
		if err := db.Where("id = ?", plan.churchID).First(&church).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Church not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to look up church")
			}
			return
		}

		profile, created, err := writeEnrollment(db, cognitoID, plan)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"cognito_user_id": cognitoID,
				"church_id":       plan.churchID,
				"role":            role,
				"error":           err,
			}).Error("Enrollment transaction failed")
			utils.InternalServerErrorResponse(c, "Failed to save profile")
			return
		}

		eventType := "profile_repaired"
		if created {
			eventType = "profile_created"
		}
		event := OnboardingEvent{
			ID:            uuid.New().String(),
			EventType:     eventType,
			ChurchID:      plan.churchID,
			CognitoUserID: cognitoID,
			ProfileID:     profile.ID,
			Role:          string(role),
			Email:         profile.Email,
			FullName:      profile.FullName(),
			Timestamp:     time.Now(),
		}
		if err := kafkaProducer.SendOnboardingEvent(event); err != nil {
			logrus.WithField("error", err).Warn("Onboarding event not queued")
		}

		// Drop cached claims; the role set just changed
		if accessToken, exists := c.Get("access_token"); exists {
			if err := middleware.InvalidateClaimsCache(accessToken.(string)); err != nil {
				logrus.WithField("error", err).Warn("Failed to invalidate cached claims after enrollment")
			}
		}

		response := map[string]interface{}{
			"profile": profile,
			"role":    role,
			"state":   StateReady,
		}
		if created {
			utils.CreatedResponse(c, "Enrollment complete", response)
		} else {
			utils.OKResponse(c, "Enrollment updated", response)
		}
	}
}

// handleGetMyProfile returns the caller's profile with specializations
func handleGetMyProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cognitoID, _, _, _ := middleware.GetUserFromContext(c)
		if cognitoID == "" {
			utils.UnauthorizedResponse(c, "Authentication required")
			return
		}

		var profile models.Profile
		if err := db.Preload("Church").Where("cognito_user_id = ?", cognitoID).First(&profile).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Profile not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch profile")
			}
			return
		}

		response := map[string]interface{}{
			"profile": profile,
		}

		var grants []models.RoleAssignment
		if err := db.Where("cognito_user_id = ? AND church_id = ?", cognitoID, profile.ChurchID).Find(&grants).Error; err == nil {
			roles := make([]models.AppRole, len(grants))
			for i, g := range grants {
				roles[i] = g.Role
			}
			response["roles"] = roles
		}

		var mentor models.MentorProfile
		if err := db.Preload("Topics.Topic").Where("profile_id = ?", profile.ID).First(&mentor).Error; err == nil {
			response["mentor_profile"] = mentor
		}

		var mentee models.MenteeProfile
		if err := db.Preload("Topics.Topic").Where("profile_id = ?", profile.ID).First(&mentee).Error; err == nil {
			response["mentee_profile"] = mentee
		}

		var professional models.ProfessionalAttributes
		if err := db.Where("profile_id = ?", profile.ID).First(&professional).Error; err == nil {
			response["professional_attributes"] = professional
		}

		var life models.LifeAttributes
		if err := db.Where("profile_id = ?", profile.ID).First(&life).Error; err == nil {
			response["life_attributes"] = life
		}

		utils.OKResponse(c, "Profile retrieved successfully", response)
	}
}

// UpdateAvailabilityRequest toggles a mentor's availability flag
type UpdateAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

// handleUpdateAvailability lets a mentor pause new match assignments
func handleUpdateAvailability(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cognitoID, _, _, _ := middleware.GetUserFromContext(c)

		var req UpdateAvailabilityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		var profile models.Profile
		if err := db.Where("cognito_user_id = ?", cognitoID).First(&profile).Error; err != nil {
			utils.NotFoundResponse(c, "Profile not found")
			return
		}

		var mentor models.MentorProfile
		if err := db.Where("profile_id = ?", profile.ID).First(&mentor).Error; err != nil {
			utils.NotFoundResponse(c, "Mentor profile not found")
			return
		}

		mentor.IsAvailable = *req.IsAvailable
		if err := db.Save(&mentor).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update availability")
			return
		}

		utils.OKResponse(c, "Availability updated", mentor)
	}
}

// handleGetDashboard returns the role-aware dashboard summary
func handleGetDashboard(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cognitoID, _, _, roles := middleware.GetUserFromContext(c)
		if cognitoID == "" {
			utils.UnauthorizedResponse(c, "Authentication required")
			return
		}

		var profile models.Profile
		if err := db.Preload("Church").Where("cognito_user_id = ?", cognitoID).First(&profile).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Profile not found; complete onboarding first")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch profile")
			}
			return
		}

		response := map[string]interface{}{
			"profile": profile,
			"roles":   roles,
		}

		isAdmin := false
		for _, r := range roles {
			if r == string(models.RoleAdmin) {
				isAdmin = true
				break
			}
		}

		if isAdmin {
			var memberCount, mentorCount, menteeCount, pendingMatches int64
			db.Model(&models.Profile{}).Where("church_id = ?", profile.ChurchID).Count(&memberCount)
			db.Model(&models.RoleAssignment{}).Where("church_id = ? AND role = ?", profile.ChurchID, models.RoleMentor).Count(&mentorCount)
			db.Model(&models.RoleAssignment{}).Where("church_id = ? AND role = ?", profile.ChurchID, models.RoleMentee).Count(&menteeCount)
			db.Model(&models.Match{}).Where("church_id = ? AND status = ?", profile.ChurchID, models.MatchStatusPending).Count(&pendingMatches)

			response["admin_summary"] = map[string]interface{}{
				"member_count":    memberCount,
				"mentor_count":    mentorCount,
				"mentee_count":    menteeCount,
				"pending_matches": pendingMatches,
			}
		}

		// Matches reference the specialization rows, not the base profile
		matchFilters := make([]uuid.UUID, 0, 2)
		var mentor models.MentorProfile
		if err := db.Where("profile_id = ?", profile.ID).First(&mentor).Error; err == nil {
			matchFilters = append(matchFilters, mentor.ID)
		}
		var mentee models.MenteeProfile
		if err := db.Where("profile_id = ?", profile.ID).First(&mentee).Error; err == nil {
			matchFilters = append(matchFilters, mentee.ID)
		}

		if len(matchFilters) > 0 {
			var matches []models.Match
			if err := db.Where("church_id = ? AND (mentor_profile_id IN ? OR mentee_profile_id IN ?)",
				profile.ChurchID, matchFilters, matchFilters).
				Order("created_at desc").Find(&matches).Error; err == nil {
				response["matches"] = matches
			}
		}

		utils.OKResponse(c, "Dashboard retrieved successfully", response)
	}
}
