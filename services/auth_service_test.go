package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"studymate/models"
)

// newTestDB opens an in-memory database with the full schema. Shared by
// the service tests in this package.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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
	return db
}

func TestHashAndVerifyPassword(t *testing.T) {
	auth := NewAuthService("test-secret", 30)

	hashed, err := auth.HashPassword("Str0ng!pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!pass", hashed)

	assert.True(t, auth.VerifyPassword("Str0ng!pass", hashed))
	assert.False(t, auth.VerifyPassword("wrong-password", hashed))
}

func TestCreateAndParseToken(t *testing.T) {
	auth := NewAuthService("test-secret", 30)
	user := &models.User{Email: "student@example.com"}
	user.ID = 42

	token, err := auth.CreateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", claims.Email)
	assert.Equal(t, uint(42), claims.UserID)
}

func TestParseTokenRejectsWrongKey(t *testing.T) {
	issuer := NewAuthService("issuer-secret", 30)
	verifier := NewAuthService("other-secret", 30)

	token, err := issuer.CreateAccessToken(&models.User{Email: "student@example.com"})
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	auth := NewAuthService("test-secret", -1)

	token, err := auth.CreateAccessToken(&models.User{Email: "student@example.com"})
	require.NoError(t, err)

	_, err = auth.ParseToken(token)
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	auth := NewAuthService("test-secret", 30)

	hashed, err := auth.HashPassword("Str0ng!pass")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Email:          "student@example.com",
		HashedPassword: hashed,
		IsActive:       true,
	}).Error)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := auth.Authenticate(db, "Student@Example.com", "Str0ng!pass")
		require.NoError(t, err)
		assert.Equal(t, "student@example.com", user.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := auth.Authenticate(db, "student@example.com", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := auth.Authenticate(db, "nobody@example.com", "Str0ng!pass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
