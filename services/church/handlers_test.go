package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindRegisterRequest(t *testing.T, body string) (RegisterChurchRequest, error) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/churches/register", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req RegisterChurchRequest
	err := c.ShouldBindJSON(&req)
	return req, err
}

func TestRegisterChurchRequestBinding(t *testing.T) {
	validBody := `{
		"church_name": "Grace Fellowship",
		"namespace": "grace-fellowship",
		"contact_email": "office@grace.example.com",
		"admin_first_name": "Hannah",
		"admin_last_name": "Samuel",
		"admin_email": "hannah@grace.example.com",
		"admin_password": "aVerySecret1"
	}`

	t.Run("complete request binds", func(t *testing.T) {
		req, err := bindRegisterRequest(t, validBody)
		require.NoError(t, err)
		assert.Equal(t, "office@grace.example.com", req.ContactEmail)
	})

	t.Run("missing contact email rejected", func(t *testing.T) {
		body := strings.Replace(validBody, `"contact_email": "office@grace.example.com",`, "", 1)
		_, err := bindRegisterRequest(t, body)
		assert.Error(t, err)
	})

	t.Run("malformed contact email rejected", func(t *testing.T) {
		body := strings.Replace(validBody, "office@grace.example.com", "not-an-email", 1)
		_, err := bindRegisterRequest(t, body)
		assert.Error(t, err)
	})

	t.Run("short admin password rejected", func(t *testing.T) {
		body := strings.Replace(validBody, "aVerySecret1", "short", 1)
		_, err := bindRegisterRequest(t, body)
		assert.Error(t, err)
	})
}

func TestNewAdminProfile(t *testing.T) {
	phone := "+1-555-0100"
	req := &RegisterChurchRequest{
		ChurchName:     "Grace Fellowship",
		Namespace:      "grace-fellowship",
		ContactEmail:   "office@grace.example.com",
		ContactPhone:   &phone,
		AdminFirstName: "Hannah",
		AdminLastName:  "Samuel",
		AdminEmail:     "hannah@grace.example.com",
	}

	churchID := uuid.New()
	profile := newAdminProfile(req, churchID, "cognito-sub-123")

	assert.Equal(t, churchID, profile.ChurchID)
	require.NotNil(t, profile.CognitoUserID)
	assert.Equal(t, "cognito-sub-123", *profile.CognitoUserID)
	assert.Equal(t, "Hannah", profile.FirstName)
	assert.Equal(t, "Samuel", profile.LastName)
	assert.Equal(t, "hannah@grace.example.com", profile.Email)

	// The church's contact phone belongs to the church row, not the
	// admin's personal profile.
	assert.Nil(t, profile.Phone)
}
