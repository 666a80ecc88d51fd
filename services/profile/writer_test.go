package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faithtech/generations-platform/shared/models"
)

func TestParseSkills(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected models.StringSlice
	}{
		{"simple list", "prayer, counseling, teaching", models.StringSlice{"prayer", "counseling", "teaching"}},
		{"extra whitespace", "  prayer ,  counseling  ", models.StringSlice{"prayer", "counseling"}},
		{"empty entries dropped", "prayer,,counseling,", models.StringSlice{"prayer", "counseling"}},
		{"single skill", "prayer", models.StringSlice{"prayer"}},
		{"empty input", "", nil},
		{"only commas", ",,,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseSkills(tt.input))
		})
	}
}

func TestParseOptionalInt(t *testing.T) {
	t.Run("blank means null", func(t *testing.T) {
		n, err := parseOptionalInt("")
		require.NoError(t, err)
		assert.Nil(t, n)
	})

	t.Run("whitespace means null", func(t *testing.T) {
		n, err := parseOptionalInt("   ")
		require.NoError(t, err)
		assert.Nil(t, n)
	})

	t.Run("digits parse", func(t *testing.T) {
		n, err := parseOptionalInt("5")
		require.NoError(t, err)
		require.NotNil(t, n)
		assert.Equal(t, 5, *n)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := parseOptionalInt("five")
		assert.Error(t, err)
	})

	t.Run("decimal rejected", func(t *testing.T) {
		_, err := parseOptionalInt("5.5")
		assert.Error(t, err)
	})
}

func validEnrollRequest() *EnrollRequest {
	return &EnrollRequest{
		ChurchID:  uuid.New().String(),
		FirstName: "Ruth",
		LastName:  "Naomi",
		Email:     "ruth@example.com",
	}
}

func TestBuildEnrollmentPlan(t *testing.T) {
	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := buildEnrollmentPlan(validEnrollRequest(), models.RoleAdmin)
		assert.Error(t, err)
	})

	t.Run("rejects bad church id", func(t *testing.T) {
		req := validEnrollRequest()
		req.ChurchID = "not-a-uuid"
		_, err := buildEnrollmentPlan(req, models.RoleMentee)
		assert.Error(t, err)
	})

	t.Run("rejects blank names after trimming", func(t *testing.T) {
		req := validEnrollRequest()
		req.FirstName = "   "
		_, err := buildEnrollmentPlan(req, models.RoleMentee)
		assert.Error(t, err)
	})

	t.Run("max mentees defaults when blank", func(t *testing.T) {
		req := validEnrollRequest()
		req.MaxMentees = ""
		plan, err := buildEnrollmentPlan(req, models.RoleMentor)
		require.NoError(t, err)
		assert.Equal(t, defaultMaxMentees, plan.maxMentees)
	})

	t.Run("max mentees honors explicit value", func(t *testing.T) {
		req := validEnrollRequest()
		req.MaxMentees = "7"
		plan, err := buildEnrollmentPlan(req, models.RoleMentor)
		require.NoError(t, err)
		assert.Equal(t, 7, plan.maxMentees)
	})

	t.Run("max mentees rejects zero", func(t *testing.T) {
		req := validEnrollRequest()
		req.MaxMentees = "0"
		_, err := buildEnrollmentPlan(req, models.RoleMentor)
		assert.Error(t, err)
	})

	t.Run("blank numerics become nil", func(t *testing.T) {
		req := validEnrollRequest()
		req.ExperienceYears = ""
		req.HoursPerWeek = ""
		req.YearsExperience = ""
		plan, err := buildEnrollmentPlan(req, models.RoleMentor)
		require.NoError(t, err)
		assert.Nil(t, plan.experienceYears)
		assert.Nil(t, plan.hoursPerWeek)
		assert.Nil(t, plan.yearsExperience)
	})

	t.Run("numeric strings parse", func(t *testing.T) {
		req := validEnrollRequest()
		req.ExperienceYears = "12"
		plan, err := buildEnrollmentPlan(req, models.RoleMentor)
		require.NoError(t, err)
		require.NotNil(t, plan.experienceYears)
		assert.Equal(t, 12, *plan.experienceYears)
	})

	t.Run("rejects invalid meeting preference", func(t *testing.T) {
		req := validEnrollRequest()
		req.MeetingPreference = "telepathy"
		_, err := buildEnrollmentPlan(req, models.RoleMentee)
		assert.Error(t, err)
	})

	t.Run("accepts valid enums", func(t *testing.T) {
		req := validEnrollRequest()
		req.MeetingPreference = "in_person"
		req.SpiritualLevel = "growing_believer"
		plan, err := buildEnrollmentPlan(req, models.RoleMentee)
		require.NoError(t, err)
		require.NotNil(t, plan.meetingPreference)
		assert.Equal(t, models.MeetingInPerson, *plan.meetingPreference)
		require.NotNil(t, plan.spiritualLevel)
		assert.Equal(t, models.LevelGrowingBeliever, *plan.spiritualLevel)
	})

	t.Run("blank enums stay nil", func(t *testing.T) {
		plan, err := buildEnrollmentPlan(validEnrollRequest(), models.RoleMentee)
		require.NoError(t, err)
		assert.Nil(t, plan.meetingPreference)
		assert.Nil(t, plan.spiritualLevel)
	})

	t.Run("rejects malformed topic ids", func(t *testing.T) {
		req := validEnrollRequest()
		req.TopicIDs = []string{uuid.New().String(), "nope"}
		_, err := buildEnrollmentPlan(req, models.RoleMentee)
		assert.Error(t, err)
	})

	t.Run("skills parsed into plan", func(t *testing.T) {
		req := validEnrollRequest()
		req.Skills = "prayer, teaching"
		plan, err := buildEnrollmentPlan(req, models.RoleMentor)
		require.NoError(t, err)
		assert.Equal(t, models.StringSlice{"prayer", "teaching"}, plan.skills)
	})
}

func TestHasProfessionalData(t *testing.T) {
	t.Run("blank section stores nothing", func(t *testing.T) {
		plan, err := buildEnrollmentPlan(validEnrollRequest(), models.RoleMentee)
		require.NoError(t, err)
		assert.False(t, plan.hasProfessionalData())
	})

	t.Run("profession alone is enough", func(t *testing.T) {
		req := validEnrollRequest()
		profession := "Engineer"
		req.Profession = &profession
		plan, err := buildEnrollmentPlan(req, models.RoleMentee)
		require.NoError(t, err)
		assert.True(t, plan.hasProfessionalData())
	})

	t.Run("industry alone is enough", func(t *testing.T) {
		req := validEnrollRequest()
		industry := "Healthcare"
		req.Industry = &industry
		plan, err := buildEnrollmentPlan(req, models.RoleMentee)
		require.NoError(t, err)
		assert.True(t, plan.hasProfessionalData())
	})

	t.Run("empty-string profession counts as blank", func(t *testing.T) {
		req := validEnrollRequest()
		profession := ""
		req.Profession = &profession
		plan, err := buildEnrollmentPlan(req, models.RoleMentee)
		require.NoError(t, err)
		assert.False(t, plan.hasProfessionalData())
	})

	t.Run("skills alone store nothing", func(t *testing.T) {
		req := validEnrollRequest()
		req.Skills = "Leadership, Communication"
		plan, err := buildEnrollmentPlan(req, models.RoleMentee)
		require.NoError(t, err)
		assert.False(t, plan.hasProfessionalData())
	})

	t.Run("years alone store nothing", func(t *testing.T) {
		req := validEnrollRequest()
		req.YearsExperience = "4"
		plan, err := buildEnrollmentPlan(req, models.RoleMentee)
		require.NoError(t, err)
		assert.False(t, plan.hasProfessionalData())
	})
}
