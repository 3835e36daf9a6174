package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studymate/middleware"
	"studymate/models"
	"studymate/services"
)

// AuthController handles registration, login, and password feedback.
type AuthController struct {
	db          *gorm.DB
	authService services.AuthService
}

// NewAuthController creates a new AuthController.
func NewAuthController(db *gorm.DB, authService services.AuthService) *AuthController {
	return &AuthController{db: db, authService: authService}
}

// Register is the Gin handler for POST /api/auth/register.
func (c *AuthController) Register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return
	}

	email := services.NormalizeEmail(req.Email)
	if !services.ValidateEmail(email) {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid email address"})
		return
	}

	validation := services.ValidatePassword(req.Password)
	if !validation.Valid {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"detail": "Password does not meet requirements",
			"errors": validation.Errors,
		})
		return
	}

	var existing models.User
	err := c.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Email already registered"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to register user"})
		return
	}

	hashed, err := c.authService.HashPassword(req.Password)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to register user"})
		return
	}

	user := models.User{
		Email:          email,
		HashedPassword: hashed,
		FullName:       req.FullName,
		IsActive:       true,
	}
	if err := c.db.Create(&user).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to register user"})
		return
	}

	ctx.JSON(http.StatusCreated, user)
}

// Token is the Gin handler for POST /api/auth/token. It exchanges
// credentials for a bearer token. Both JSON bodies and classic
// username/password form posts are accepted; the body can only be read
// once, so the branch is on content type rather than bind-and-retry.
func (c *AuthController) Token(ctx *gin.Context) {
	var req models.LoginRequest
	if ctx.ContentType() == "application/json" {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
			return
		}
	} else {
		req.Email = ctx.PostForm("username")
		if req.Email == "" {
			req.Email = ctx.PostForm("email")
		}
		req.Password = ctx.PostForm("password")
		if req.Email == "" || req.Password == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Missing credentials"})
			return
		}
	}

	user, err := c.authService.Authenticate(c.db, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect email or password"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to log in"})
		return
	}
	if !user.IsActive {
		ctx.JSON(http.StatusForbidden, gin.H{"detail": "Account is disabled"})
		return
	}

	token, err := c.authService.CreateAccessToken(user)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to issue token"})
		return
	}
	ctx.JSON(http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// ValidatePassword is the Gin handler for POST /api/auth/validate-password.
// It gives live feedback while the user types a password.
func (c *AuthController) ValidatePassword(ctx *gin.Context) {
	var req models.PasswordCheckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return
	}

	validation := services.ValidatePassword(req.Password)
	strength := services.ScorePassword(req.Password)
	ctx.JSON(http.StatusOK, gin.H{
		"valid":            validation.Valid,
		"errors":           validation.Errors,
		"requirements_met": validation.RequirementsMet,
		"strength":         strength,
	})
}

// Me is the Gin handler for GET /api/auth/me.
func (c *AuthController) Me(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	if user == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	ctx.JSON(http.StatusOK, user)
}
