package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studymate/middleware"
	"studymate/models"
)

func newCourseEnv(t *testing.T) (*gin.Engine, *gorm.DB, string, string) {
	t.Helper()
	router, db, auth := newTestEnv(t)

	c := NewCourseController(db)
	group := router.Group("/api/courses", middleware.RequireAuth(auth, db))
	group.POST("/", c.Create)
	group.GET("/", c.List)
	group.GET("/:course_id", c.Get)
	group.PUT("/:course_id", c.Update)
	group.DELETE("/:course_id", c.Delete)

	owner := &models.User{Email: "owner@example.com", HashedPassword: "x", IsActive: true}
	require.NoError(t, db.Create(owner).Error)
	other := &models.User{Email: "other@example.com", HashedPassword: "x", IsActive: true}
	require.NoError(t, db.Create(other).Error)

	ownerToken, err := auth.CreateAccessToken(owner)
	require.NoError(t, err)
	otherToken, err := auth.CreateAccessToken(other)
	require.NoError(t, err)

	return router, db, ownerToken, otherToken
}

func TestCourseLifecycle(t *testing.T) {
	router, _, ownerToken, otherToken := newCourseEnv(t)

	w := postJSON(t, router, "/api/courses/", models.CourseRequest{
		Title: "Biology 101", Description: "Intro course",
	}, ownerToken)
	require.Equal(t, http.StatusCreated, w.Code)

	var course models.Course
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &course))
	assert.Equal(t, "Biology 101", course.Title)
	path := fmt.Sprintf("/api/courses/%d", course.ID)

	t.Run("owner sees it in the list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/courses/", nil)
		req.Header.Set("Authorization", "Bearer "+ownerToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var courses []models.Course
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &courses))
		assert.Len(t, courses, 1)
	})

	t.Run("another user cannot see it", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+otherToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("owner can update", func(t *testing.T) {
		payload, _ := json.Marshal(models.CourseRequest{Title: "Biology 102", Description: "Updated"})
		req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+ownerToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Biology 102")
	})

	t.Run("owner can delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		req.Header.Set("Authorization", "Bearer "+ownerToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		req = httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+ownerToken)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCourseValidation(t *testing.T) {
	router, _, ownerToken, _ := newCourseEnv(t)

	t.Run("missing title rejected", func(t *testing.T) {
		w := postJSON(t, router, "/api/courses/", map[string]string{"description": "no title"}, ownerToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated rejected", func(t *testing.T) {
		w := postJSON(t, router, "/api/courses/", models.CourseRequest{Title: "X"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad id rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/courses/not-a-number", nil)
		req.Header.Set("Authorization", "Bearer "+ownerToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
