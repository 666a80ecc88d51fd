package main

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/faithtech/generations-platform/shared/models"
)

// The enrollment tables are created by hand: the production schema
// carries Postgres defaults sqlite cannot parse, and the writer
// supplies every value itself anyway.
var enrollmentTables = map[string]string{
	"profiles": `CREATE TABLE profiles (
		id TEXT PRIMARY KEY, church_id TEXT, cognito_user_id TEXT,
		first_name TEXT, last_name TEXT, email TEXT, phone TEXT,
		bio TEXT, avatar_url TEXT, created_at DATETIME, updated_at DATETIME)`,
	"user_roles": `CREATE TABLE user_roles (
		id TEXT PRIMARY KEY, cognito_user_id TEXT, church_id TEXT,
		role TEXT, created_at DATETIME)`,
	"mentor_profiles": `CREATE TABLE mentor_profiles (
		id TEXT PRIMARY KEY, profile_id TEXT, experience_years INTEGER,
		ministry_area TEXT, max_mentees INTEGER, hours_per_week INTEGER,
		cadence_description TEXT, is_available BOOLEAN,
		meeting_preference TEXT, spiritual_level TEXT,
		created_at DATETIME, updated_at DATETIME)`,
	"mentee_profiles": `CREATE TABLE mentee_profiles (
		id TEXT PRIMARY KEY, profile_id TEXT, goals TEXT,
		preferred_mentor_gender TEXT, preferred_mentor_age_range TEXT,
		meeting_preference TEXT, spiritual_level TEXT,
		created_at DATETIME, updated_at DATETIME)`,
	"professional_attributes": `CREATE TABLE professional_attributes (
		id TEXT PRIMARY KEY, profile_id TEXT, profession TEXT,
		industry TEXT, years_experience INTEGER, skills BLOB,
		created_at DATETIME)`,
	"life_attributes": `CREATE TABLE life_attributes (
		id TEXT PRIMARY KEY, profile_id TEXT, is_married BOOLEAN,
		has_children BOOLEAN, is_retired BOOLEAN, custom_notes TEXT,
		created_at DATETIME)`,
	"mentor_topics": `CREATE TABLE mentor_topics (
		mentor_profile_id TEXT, topic_id TEXT,
		PRIMARY KEY (mentor_profile_id, topic_id))`,
	"mentee_topics": `CREATE TABLE mentee_topics (
		mentee_profile_id TEXT, topic_id TEXT,
		PRIMARY KEY (mentee_profile_id, topic_id))`,
}

// openEnrollmentDB opens an in-memory database with the named tables
// left out, so a writer step can be made to fail deterministically.
func openEnrollmentDB(t *testing.T, omit ...string) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every pooled connection would otherwise get its own empty
	// in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	omitted := make(map[string]bool, len(omit))
	for _, name := range omit {
		omitted[name] = true
	}
	for name, ddl := range enrollmentTables {
		if omitted[name] {
			continue
		}
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func mentorEnrollRequest(churchID uuid.UUID, topicIDs ...uuid.UUID) *EnrollRequest {
	profession := "Teacher"
	req := &EnrollRequest{
		ChurchID:   churchID.String(),
		FirstName:  "Priscilla",
		LastName:   "Aquila",
		Email:      "priscilla@example.com",
		MaxMentees: "2",
		Profession: &profession,
		Skills:     "Leadership, Hospitality",
	}
	for _, id := range topicIDs {
		req.TopicIDs = append(req.TopicIDs, id.String())
	}
	return req
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestWriteEnrollmentMentorAggregate(t *testing.T) {
	db := openEnrollmentDB(t)
	churchID := uuid.New()
	topicA, topicB := uuid.New(), uuid.New()

	plan, err := buildEnrollmentPlan(mentorEnrollRequest(churchID, topicA, topicB), models.RoleMentor)
	require.NoError(t, err)

	profile, created, err := writeEnrollment(db, "cognito-mentor-1", plan)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, churchID, profile.ChurchID)

	assert.EqualValues(t, 1, countRows(t, db, &models.Profile{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.RoleAssignment{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.MentorProfile{}))
	assert.EqualValues(t, 2, countRows(t, db, &models.MentorTopic{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.ProfessionalAttributes{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.LifeAttributes{}))
}

func TestWriteEnrollmentResubmissionRepairs(t *testing.T) {
	db := openEnrollmentDB(t)
	churchID := uuid.New()
	topicA, topicB := uuid.New(), uuid.New()

	plan, err := buildEnrollmentPlan(mentorEnrollRequest(churchID, topicA, topicB), models.RoleMentor)
	require.NoError(t, err)

	first, created, err := writeEnrollment(db, "cognito-mentor-1", plan)
	require.NoError(t, err)
	require.True(t, created)

	// Resubmit with a different topic selection; rows converge instead
	// of duplicating and the topic links are replaced wholesale.
	replan, err := buildEnrollmentPlan(mentorEnrollRequest(churchID, topicB), models.RoleMentor)
	require.NoError(t, err)

	second, created, err := writeEnrollment(db, "cognito-mentor-1", replan)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	assert.EqualValues(t, 1, countRows(t, db, &models.Profile{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.RoleAssignment{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.MentorProfile{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.MentorTopic{}))
}

func TestWriteEnrollmentMenteeAggregate(t *testing.T) {
	db := openEnrollmentDB(t)
	churchID := uuid.New()
	topic := uuid.New()

	goals := "Grow in faith"
	req := &EnrollRequest{
		ChurchID:  churchID.String(),
		FirstName: "Timothy",
		LastName:  "Lystra",
		Email:     "timothy@example.com",
		Goals:     &goals,
		TopicIDs:  []string{topic.String()},
		Skills:    "Leadership, Communication",
	}
	plan, err := buildEnrollmentPlan(req, models.RoleMentee)
	require.NoError(t, err)

	_, created, err := writeEnrollment(db, "cognito-mentee-1", plan)
	require.NoError(t, err)
	assert.True(t, created)

	assert.EqualValues(t, 1, countRows(t, db, &models.Profile{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.RoleAssignment{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.MenteeProfile{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.MenteeTopic{}))
	assert.EqualValues(t, 0, countRows(t, db, &models.MentorProfile{}))

	// Skills without a profession or industry store no professional row
	assert.EqualValues(t, 0, countRows(t, db, &models.ProfessionalAttributes{}))
}

func TestWriteEnrollmentRollsBackOnSpecializationFailure(t *testing.T) {
	// No mentor_profiles table, so the specialization step fails after
	// the profile and role grant were written inside the transaction.
	db := openEnrollmentDB(t, "mentor_profiles")
	churchID := uuid.New()

	plan, err := buildEnrollmentPlan(mentorEnrollRequest(churchID), models.RoleMentor)
	require.NoError(t, err)

	_, _, err = writeEnrollment(db, "cognito-mentor-1", plan)
	require.Error(t, err)

	assert.EqualValues(t, 0, countRows(t, db, &models.Profile{}))
	assert.EqualValues(t, 0, countRows(t, db, &models.RoleAssignment{}))
}
