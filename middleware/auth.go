package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studymate/models"
	"studymate/services"
)

// CurrentUserKey is the gin context key the auth middleware stores the
// authenticated user under.
const CurrentUserKey = "currentUser"

// RequireAuth validates the Bearer token, loads the user, and aborts with
// 401 when anything is off. Disabled accounts are rejected even with a
// valid token.
func RequireAuth(auth services.AuthService, db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}

		claims, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
			return
		}

		var user models.User
		if err := db.Where("email = ?", claims.Email).First(&user).Error; err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
			return
		}
		if !user.IsActive {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Account is disabled"})
			return
		}

		ctx.Set(CurrentUserKey, &user)
		ctx.Next()
	}
}

// RequireAdmin must run after RequireAuth. It aborts with 403 for
// non-admin accounts.
func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user := CurrentUser(ctx)
		if user == nil || !user.IsAdmin {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Admin access required"})
			return
		}
		ctx.Next()
	}
}

// CurrentUser returns the user set by RequireAuth, or nil outside an
// authenticated request.
func CurrentUser(ctx *gin.Context) *models.User {
	value, exists := ctx.Get(CurrentUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// CORS allows the local frontend to call the API from another port.
func CORS() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		ctx.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		ctx.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}
