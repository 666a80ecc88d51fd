package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/faithtech/generations-platform/shared/models"
)

const defaultMaxMentees = 3

// EnrollRequest is the full onboarding form. Numeric fields arrive as
// strings because that is what the form submits; empty string means
// the field was left blank and stores as NULL.
type EnrollRequest struct {
	ChurchID string `json:"church_id" binding:"required"`

	FirstName string  `json:"first_name" binding:"required"`
	LastName  string  `json:"last_name" binding:"required"`
	Email     string  `json:"email" binding:"required,email"`
	Phone     *string `json:"phone"`
	Bio       *string `json:"bio"`

	// Mentor fields
	ExperienceYears    string  `json:"experience_years"`
	MinistryArea       *string `json:"ministry_area"`
	MaxMentees         string  `json:"max_mentees"`
	HoursPerWeek       string  `json:"hours_per_week"`
	CadenceDescription *string `json:"cadence_description"`

	// Mentee fields
	Goals                   *string `json:"goals"`
	PreferredMentorGender   *string `json:"preferred_mentor_gender"`
	PreferredMentorAgeRange *string `json:"preferred_mentor_age_range"`

	// Shared specialization fields
	MeetingPreference string   `json:"meeting_preference"`
	SpiritualLevel    string   `json:"spiritual_level"`
	TopicIDs          []string `json:"topic_ids"`

	// Professional attributes
	Profession      *string `json:"profession"`
	Industry        *string `json:"industry"`
	YearsExperience string  `json:"years_experience"`
	Skills          string  `json:"skills"`

	// Life attributes
	IsMarried   bool    `json:"is_married"`
	HasChildren bool    `json:"has_children"`
	IsRetired   bool    `json:"is_retired"`
	CustomNotes *string `json:"custom_notes"`
}

// enrollmentPlan is the validated, typed form ready to be written
type enrollmentPlan struct {
	role     models.AppRole
	churchID uuid.UUID

	firstName string
	lastName  string
	email     string
	phone     *string
	bio       *string

	experienceYears    *int
	ministryArea       *string
	maxMentees         int
	hoursPerWeek       *int
	cadenceDescription *string

	goals                   *string
	preferredMentorGender   *string
	preferredMentorAgeRange *string

	meetingPreference *models.MeetingPreference
	spiritualLevel    *models.SpiritualLevel
	topicIDs          []uuid.UUID

	profession      *string
	industry        *string
	yearsExperience *int
	skills          models.StringSlice

	isMarried   bool
	hasChildren bool
	isRetired   bool
	customNotes *string
}

// parseSkills splits a comma-separated skills field into a clean list.
// Blank entries are dropped; an all-blank input yields nil.
func parseSkills(raw string) models.StringSlice {
	var skills models.StringSlice
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// parseOptionalInt maps "" to nil and anything else through strconv
func parseOptionalInt(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("not a whole number: %q", raw)
	}
	return &n, nil
}

// buildEnrollmentPlan validates and types the raw form for one role.
// It touches no storage, so bad input is rejected before the identity
// provider or the database ever see it.
func buildEnrollmentPlan(req *EnrollRequest, role models.AppRole) (*enrollmentPlan, error) {
	if role != models.RoleMentor && role != models.RoleMentee {
		return nil, fmt.Errorf("role must be mentor or mentee")
	}

	churchID, err := uuid.Parse(req.ChurchID)
	if err != nil {
		return nil, fmt.Errorf("invalid church_id")
	}

	plan := &enrollmentPlan{
		role:      role,
		churchID:  churchID,
		firstName: strings.TrimSpace(req.FirstName),
		lastName:  strings.TrimSpace(req.LastName),
		email:     strings.TrimSpace(req.Email),
		phone:     req.Phone,
		bio:       req.Bio,

		ministryArea:       req.MinistryArea,
		cadenceDescription: req.CadenceDescription,

		goals:                   req.Goals,
		preferredMentorGender:   req.PreferredMentorGender,
		preferredMentorAgeRange: req.PreferredMentorAgeRange,

		profession:  req.Profession,
		industry:    req.Industry,
		skills:      parseSkills(req.Skills),
		isMarried:   req.IsMarried,
		hasChildren: req.HasChildren,
		isRetired:   req.IsRetired,
		customNotes: req.CustomNotes,
	}

	if plan.firstName == "" || plan.lastName == "" {
		return nil, fmt.Errorf("first and last name are required")
	}

	if plan.experienceYears, err = parseOptionalInt(req.ExperienceYears); err != nil {
		return nil, fmt.Errorf("experience_years: %w", err)
	}
	if plan.hoursPerWeek, err = parseOptionalInt(req.HoursPerWeek); err != nil {
		return nil, fmt.Errorf("hours_per_week: %w", err)
	}
	if plan.yearsExperience, err = parseOptionalInt(req.YearsExperience); err != nil {
		return nil, fmt.Errorf("years_experience: %w", err)
	}

	maxMentees, err := parseOptionalInt(req.MaxMentees)
	if err != nil {
		return nil, fmt.Errorf("max_mentees: %w", err)
	}
	plan.maxMentees = defaultMaxMentees
	if maxMentees != nil {
		if *maxMentees < 1 {
			return nil, fmt.Errorf("max_mentees must be at least 1")
		}
		plan.maxMentees = *maxMentees
	}

	if req.MeetingPreference != "" {
		mp := models.MeetingPreference(req.MeetingPreference)
		if !mp.IsValid() {
			return nil, fmt.Errorf("invalid meeting_preference: %q", req.MeetingPreference)
		}
		plan.meetingPreference = &mp
	}

	if req.SpiritualLevel != "" {
		sl := models.SpiritualLevel(req.SpiritualLevel)
		if !sl.IsValid() {
			return nil, fmt.Errorf("invalid spiritual_level: %q", req.SpiritualLevel)
		}
		plan.spiritualLevel = &sl
	}

	for _, raw := range req.TopicIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid topic id: %q", raw)
		}
		plan.topicIDs = append(plan.topicIDs, id)
	}

	return plan, nil
}

// writeEnrollment persists the whole aggregate in one transaction and
// reports whether a new profile was created. Resubmitting the form for
// the same (user, church) updates what exists instead of failing, so a
// client retry after a dropped response converges on the same rows.
func writeEnrollment(db *gorm.DB, cognitoUserID string, plan *enrollmentPlan) (*models.Profile, bool, error) {
	var profile models.Profile
	created := false

	txErr := db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("cognito_user_id = ? AND church_id = ?", cognitoUserID, plan.churchID).
			First(&profile).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			created = true
			profile = models.Profile{
				ID:            uuid.New(),
				ChurchID:      plan.churchID,
				CognitoUserID: &cognitoUserID,
				FirstName:     plan.firstName,
				LastName:      plan.lastName,
				Email:         plan.email,
				Phone:         plan.phone,
				Bio:           plan.bio,
			}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			profile.FirstName = plan.firstName
			profile.LastName = plan.lastName
			profile.Email = plan.email
			profile.Phone = plan.phone
			profile.Bio = plan.bio
			if err := tx.Save(&profile).Error; err != nil {
				return err
			}
		}

		if err := upsertRoleGrant(tx, cognitoUserID, plan.churchID, plan.role); err != nil {
			return err
		}

		if plan.role == models.RoleMentor {
			if err := upsertMentorProfile(tx, profile.ID, plan); err != nil {
				return err
			}
		} else {
			if err := upsertMenteeProfile(tx, profile.ID, plan); err != nil {
				return err
			}
		}

		if err := upsertProfessionalAttributes(tx, profile.ID, plan); err != nil {
			return err
		}
		return upsertLifeAttributes(tx, profile.ID, plan)
	})

	if txErr != nil {
		return nil, false, txErr
	}
	return &profile, created, nil
}

func upsertRoleGrant(tx *gorm.DB, cognitoUserID string, churchID uuid.UUID, role models.AppRole) error {
	var grant models.RoleAssignment
	err := tx.Where("cognito_user_id = ? AND church_id = ? AND role = ?", cognitoUserID, churchID, role).
		First(&grant).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	grant = models.RoleAssignment{
		ID:            uuid.New(),
		CognitoUserID: cognitoUserID,
		ChurchID:      churchID,
		Role:          role,
	}
	return tx.Create(&grant).Error
}

func upsertMentorProfile(tx *gorm.DB, profileID uuid.UUID, plan *enrollmentPlan) error {
	var mentor models.MentorProfile
	err := tx.Where("profile_id = ?", profileID).First(&mentor).Error
	if err == gorm.ErrRecordNotFound {
		mentor = models.MentorProfile{
			ID:          uuid.New(),
			ProfileID:   profileID,
			IsAvailable: true,
		}
	} else if err != nil {
		return err
	}

	mentor.ExperienceYears = plan.experienceYears
	mentor.MinistryArea = plan.ministryArea
	mentor.MaxMentees = &plan.maxMentees
	mentor.HoursPerWeek = plan.hoursPerWeek
	mentor.CadenceDescription = plan.cadenceDescription
	mentor.MeetingPreference = plan.meetingPreference
	mentor.SpiritualLevel = plan.spiritualLevel

	if err := tx.Save(&mentor).Error; err != nil {
		return err
	}

	// Replace the topic links wholesale; the form always submits the
	// full selection.
	if err := tx.Where("mentor_profile_id = ?", mentor.ID).Delete(&models.MentorTopic{}).Error; err != nil {
		return err
	}
	for _, topicID := range plan.topicIDs {
		link := models.MentorTopic{MentorProfileID: mentor.ID, TopicID: topicID}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func upsertMenteeProfile(tx *gorm.DB, profileID uuid.UUID, plan *enrollmentPlan) error {
	var mentee models.MenteeProfile
	err := tx.Where("profile_id = ?", profileID).First(&mentee).Error
	if err == gorm.ErrRecordNotFound {
		mentee = models.MenteeProfile{
			ID:        uuid.New(),
			ProfileID: profileID,
		}
	} else if err != nil {
		return err
	}

	mentee.Goals = plan.goals
	mentee.PreferredMentorGender = plan.preferredMentorGender
	mentee.PreferredMentorAgeRange = plan.preferredMentorAgeRange
	mentee.MeetingPreference = plan.meetingPreference
	mentee.SpiritualLevel = plan.spiritualLevel

	if err := tx.Save(&mentee).Error; err != nil {
		return err
	}

	if err := tx.Where("mentee_profile_id = ?", mentee.ID).Delete(&models.MenteeTopic{}).Error; err != nil {
		return err
	}
	for _, topicID := range plan.topicIDs {
		link := models.MenteeTopic{MenteeProfileID: mentee.ID, TopicID: topicID}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

// hasProfessionalData reports whether the professional section was
// filled in. Only profession or industry count: skills or years on
// their own store no row.
func (p *enrollmentPlan) hasProfessionalData() bool {
	return !isBlank(p.profession) || !isBlank(p.industry)
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func upsertProfessionalAttributes(tx *gorm.DB, profileID uuid.UUID, plan *enrollmentPlan) error {
	var attrs models.ProfessionalAttributes
	err := tx.Where("profile_id = ?", profileID).First(&attrs).Error
	if err == gorm.ErrRecordNotFound {
		if !plan.hasProfessionalData() {
			return nil
		}
		attrs = models.ProfessionalAttributes{
			ID:        uuid.New(),
			ProfileID: profileID,
		}
	} else if err != nil {
		return err
	}

	attrs.Profession = plan.profession
	attrs.Industry = plan.industry
	attrs.YearsExperience = plan.yearsExperience
	attrs.Skills = plan.skills

	return tx.Save(&attrs).Error
}

func upsertLifeAttributes(tx *gorm.DB, profileID uuid.UUID, plan *enrollmentPlan) error {
	var attrs models.LifeAttributes
	err := tx.Where("profile_id = ?", profileID).First(&attrs).Error
	if err == gorm.ErrRecordNotFound {
		attrs = models.LifeAttributes{
			ID:        uuid.New(),
			ProfileID: profileID,
		}
	} else if err != nil {
		return err
	}

	attrs.IsMarried = plan.isMarried
	attrs.HasChildren = plan.hasChildren
	attrs.IsRetired = plan.isRetired
	attrs.CustomNotes = plan.customNotes

	return tx.Save(&attrs).Error
}
