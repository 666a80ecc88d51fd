package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/faithtech/generations-platform/shared/middleware"
	"github.com/faithtech/generations-platform/shared/models"
	"github.com/faithtech/generations-platform/shared/utils"
)

// CreateMatchRequest pairs a mentor and mentee within the admin's church
type CreateMatchRequest struct {
	MentorProfileID string  `json:"mentor_profile_id" binding:"required"`
	MenteeProfileID string  `json:"mentee_profile_id" binding:"required"`
	AdminNotes      *string `json:"admin_notes"`
}

// UpdateMatchStatusRequest moves a match along its lifecycle
type UpdateMatchStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// handleCreateMatch creates an admin-assisted match between a mentor
// and mentee of the admin's church
func handleCreateMatch(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		churchID, err := middleware.GetChurchIDFromContext(c)
		if err != nil {
			utils.ForbiddenResponse(c, "No church membership")
			return
		}

		var req CreateMatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		mentorID, err := uuid.Parse(req.MentorProfileID)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid mentor_profile_id")
			return
		}
		menteeID, err := uuid.Parse(req.MenteeProfileID)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid mentee_profile_id")
			return
		}

		// Both sides must belong to the admin's church
		var mentor models.MentorProfile
		if err := db.Preload("Profile").Where("id = ?", mentorID).First(&mentor).Error; err != nil {
			utils.NotFoundResponse(c, "Mentor profile not found")
			return
		}
		if mentor.Profile == nil || mentor.Profile.ChurchID != churchID {
			utils.ForbiddenResponse(c, "Mentor belongs to a different church")
			return
		}
		if !mentor.IsAvailable {
			utils.BadRequestResponse(c, "Mentor is not accepting new mentees")
			return
		}

		var mentee models.MenteeProfile
		if err := db.Preload("Profile").Where("id = ?", menteeID).First(&mentee).Error; err != nil {
			utils.NotFoundResponse(c, "Mentee profile not found")
			return
		}
		if mentee.Profile == nil || mentee.Profile.ChurchID != churchID {
			utils.ForbiddenResponse(c, "Mentee belongs to a different church")
			return
		}

		// One live match per pair; terminal matches can be re-created
		var existing models.Match
		if err := db.Where("mentor_profile_id = ? AND mentee_profile_id = ? AND status IN ?",
			mentorID, menteeID,
			[]models.MatchStatus{models.MatchStatusPending, models.MatchStatusAccepted, models.MatchStatusActive}).
			First(&existing).Error; err == nil {
			utils.ConflictResponse(c, "An open match already exists for this pair")
			return
		}

		// Enforce mentor capacity against open matches
		if mentor.MaxMentees != nil {
			var openCount int64
			if err := db.Model(&models.Match{}).
				Where("mentor_profile_id = ? AND status IN ?", mentorID,
					[]models.MatchStatus{models.MatchStatusAccepted, models.MatchStatusActive}).
				Count(&openCount).Error; err != nil {
				utils.InternalServerErrorResponse(c, "Failed to check mentor capacity")
				return
			}
			if openCount >= int64(*mentor.MaxMentees) {
				utils.BadRequestResponse(c, "Mentor is at capacity")
				return
			}
		}

		match := models.Match{
			ID:              uuid.New(),
			ChurchID:        churchID,
			MentorProfileID: mentorID,
			MenteeProfileID: menteeID,
			Status:          models.MatchStatusPending,
			AdminNotes:      req.AdminNotes,
			CreatedByAdmin:  true,
		}

		if err := db.Create(&match).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to create match")
			return
		}

		utils.CreatedResponse(c, "Match created successfully", match)
	}
}

// handleGetMatches lists matches for the caller's church, optionally
// filtered by status
func handleGetMatches(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		churchID, err := middleware.GetChurchIDFromContext(c)
		if err != nil {
			utils.ForbiddenResponse(c, "No church membership")
			return
		}

		query := db.Where("church_id = ?", churchID)
		if status := c.Query("status"); status != "" {
			ms := models.MatchStatus(status)
			if !ms.IsValid() {
				utils.BadRequestResponse(c, "Unknown status filter")
				return
			}
			query = query.Where("status = ?", ms)
		}

		var matches []models.Match
		if err := query.
			Preload("MentorProfile.Profile").
			Preload("MenteeProfile.Profile").
			Order("created_at desc").
			Find(&matches).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to fetch matches")
			return
		}

		utils.OKResponse(c, "Matches retrieved successfully", matches)
	}
}

// handleGetMatch returns one match scoped to the caller's church
func handleGetMatch(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		churchID, err := middleware.GetChurchIDFromContext(c)
		if err != nil {
			utils.ForbiddenResponse(c, "No church membership")
			return
		}

		var match models.Match
		if err := db.
			Preload("MentorProfile.Profile").
			Preload("MenteeProfile.Profile").
			Where("id = ? AND church_id = ?", c.Param("id"), churchID).
			First(&match).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Match not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch match")
			}
			return
		}

		utils.OKResponse(c, "Match retrieved successfully", match)
	}
}

// handleUpdateMatchStatus advances a match through its lifecycle.
// Illegal transitions are rejected; activation and completion stamp
// their timestamps.
func handleUpdateMatchStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		churchID, err := middleware.GetChurchIDFromContext(c)
		if err != nil {
			utils.ForbiddenResponse(c, "No church membership")
			return
		}

		var req UpdateMatchStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		target := models.MatchStatus(req.Status)
		if !target.IsValid() {
			utils.BadRequestResponse(c, "Unknown match status")
			return
		}

		var match models.Match
		if err := db.Where("id = ? AND church_id = ?", c.Param("id"), churchID).First(&match).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFoundResponse(c, "Match not found")
			} else {
				utils.InternalServerErrorResponse(c, "Failed to fetch match")
			}
			return
		}

		if !match.Status.CanTransitionTo(target) {
			utils.ConflictResponse(c, "Cannot move match from "+string(match.Status)+" to "+string(target))
			return
		}

		now := time.Now()
		match.Status = target
		switch target {
		case models.MatchStatusActive:
			match.StartedAt = &now
		case models.MatchStatusCompleted:
			match.CompletedAt = &now
		}

		if err := db.Save(&match).Error; err != nil {
			utils.InternalServerErrorResponse(c, "Failed to update match")
			return
		}

		utils.OKResponse(c, "Match status updated", match)
	}
}
