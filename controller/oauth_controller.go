package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studymate/services"
)

// OAuthController exposes the provider login flow: one endpoint to get the
// authorization URL and one callback to finish the exchange.
type OAuthController struct {
	oauthService services.OAuthService
	authService  services.AuthService
}

// NewOAuthController creates a new OAuthController.
func NewOAuthController(oauthService services.OAuthService, authService services.AuthService) *OAuthController {
	return &OAuthController{oauthService: oauthService, authService: authService}
}

// Authorize is the Gin handler for GET /api/oauth/auth/:provider. It
// returns the provider's authorization URL for the frontend to redirect to.
func (c *OAuthController) Authorize(ctx *gin.Context) {
	provider := ctx.Param("provider")
	state := uuid.New().String()

	url, err := c.oauthService.AuthorizationURL(provider, state)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"authorization_url": url, "state": state})
}

// Callback is the Gin handler for GET /api/oauth/callback/:provider. It
// exchanges the authorization code and returns an access token.
func (c *OAuthController) Callback(ctx *gin.Context) {
	provider := ctx.Param("provider")
	code := ctx.Query("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Missing authorization code"})
		return
	}

	info, err := c.oauthService.Exchange(ctx.Request.Context(), provider, code)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "OAuth exchange failed: " + err.Error()})
		return
	}

	user, err := c.oauthService.CreateOrGetUser(provider, info)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to sign in"})
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
	ctx.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// Providers is the Gin handler for GET /api/oauth/providers.
func (c *OAuthController) Providers(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"providers": c.oauthService.Providers()})
}
