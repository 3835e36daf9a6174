package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studymate/middleware"
	"studymate/models"
	"studymate/services"
)

// newTestEnv wires a router with an in-memory database, shared by the
// controller tests in this package.
func newTestEnv(t *testing.T) (*gin.Engine, *gorm.DB, services.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Document{},
		&models.DocumentChunk{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.Citation{},
		&models.Quiz{},
		&models.QuizQuestion{},
	))

	auth := services.NewAuthService("test-secret", 30)
	return gin.New(), db, auth
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAuthRoutes(router *gin.Engine, db *gorm.DB, auth services.AuthService) {
	c := NewAuthController(db, auth)
	group := router.Group("/api/auth")
	group.POST("/register", c.Register)
	group.POST("/token", c.Token)
	group.POST("/validate-password", c.ValidatePassword)
	group.GET("/me", middleware.RequireAuth(auth, db), c.Me)
}

func TestRegister(t *testing.T) {
	router, db, auth := newTestEnv(t)
	registerAuthRoutes(router, db, auth)

	t.Run("creates the account", func(t *testing.T) {
		w := postJSON(t, router, "/api/auth/register", models.RegisterRequest{
			Email: "Student@Example.com", Password: "Str0ng!pass", FullName: "A Student",
		}, "")
		require.Equal(t, http.StatusCreated, w.Code)

		var user models.User
		require.NoError(t, db.Where("email = ?", "student@example.com").First(&user).Error)
		assert.Equal(t, "A Student", user.FullName)
		assert.True(t, user.IsActive)
		assert.NotEmpty(t, user.HashedPassword)
		// the hash never leaves the server
		assert.NotContains(t, w.Body.String(), user.HashedPassword)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		w := postJSON(t, router, "/api/auth/register", models.RegisterRequest{
			Email: "student@example.com", Password: "Str0ng!pass",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "already registered")
	})

	t.Run("rejects weak password", func(t *testing.T) {
		w := postJSON(t, router, "/api/auth/register", models.RegisterRequest{
			Email: "other@example.com", Password: "weak",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects bad email", func(t *testing.T) {
		w := postJSON(t, router, "/api/auth/register", models.RegisterRequest{
			Email: "not-an-email", Password: "Str0ng!pass",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTokenLoginAndMe(t *testing.T) {
	router, db, auth := newTestEnv(t)
	registerAuthRoutes(router, db, auth)

	w := postJSON(t, router, "/api/auth/register", models.RegisterRequest{
		Email: "student@example.com", Password: "Str0ng!pass",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("issues a token for valid credentials", func(t *testing.T) {
		w := postJSON(t, router, "/api/auth/token", models.LoginRequest{
			Email: "student@example.com", Password: "Str0ng!pass",
		}, "")
		require.Equal(t, http.StatusOK, w.Code)

		var token models.TokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
		assert.Equal(t, "bearer", token.TokenType)
		require.NotEmpty(t, token.AccessToken)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "student@example.com")
	})

	t.Run("issues a token for a form post", func(t *testing.T) {
		form := url.Values{}
		form.Set("username", "student@example.com")
		form.Set("password", "Str0ng!pass")

		req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var token models.TokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
		assert.Equal(t, "bearer", token.TokenType)
		assert.NotEmpty(t, token.AccessToken)
	})

	t.Run("rejects a form post without credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader("username=student@example.com"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		w := postJSON(t, router, "/api/auth/token", models.LoginRequest{
			Email: "student@example.com", Password: "wrong",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects disabled account", func(t *testing.T) {
		require.NoError(t, db.Model(&models.User{}).
			Where("email = ?", "student@example.com").
			Update("is_active", false).Error)

		w := postJSON(t, router, "/api/auth/token", models.LoginRequest{
			Email: "student@example.com", Password: "Str0ng!pass",
		}, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestValidatePasswordEndpoint(t *testing.T) {
	router, db, auth := newTestEnv(t)
	registerAuthRoutes(router, db, auth)

	w := postJSON(t, router, "/api/auth/validate-password", models.PasswordCheckRequest{
		Password: "Str0ng!pass",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Valid    bool `json:"valid"`
		Strength struct {
			Score int    `json:"score"`
			Level string `json:"level"`
		} `json:"strength"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Valid)
	assert.Greater(t, body.Strength.Score, 0)
	assert.NotEmpty(t, body.Strength.Level)
}
