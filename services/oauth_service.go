package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"gorm.io/gorm"

	"studymate/models"
)

// oauthPlaceholderPassword is hashed into accounts created through a
// provider so they can never log in with a password.
const oauthPlaceholderPassword = "oauth_user_no_password"

// OAuthUserInfo is the provider-independent profile we care about.
type OAuthUserInfo struct {
	ProviderID string
	Email      string
	FullName   string
}

// OAuthService handles the authorization-code flow against Google,
// GitHub, and Facebook and maps provider profiles onto local users.
type OAuthService interface {
	AuthorizationURL(provider, state string) (string, error)
	Exchange(ctx context.Context, provider, code string) (*OAuthUserInfo, error)
	CreateOrGetUser(provider string, info *OAuthUserInfo) (*models.User, error)
	Providers() []string
}

type oauthServiceImpl struct {
	db         *gorm.DB
	auth       AuthService
	configs    map[string]*oauth2.Config
	httpClient *http.Client

	// userinfo endpoints, overridable in tests
	googleUserInfoURL   string
	githubUserInfoURL   string
	githubEmailsURL     string
	facebookUserInfoURL string
}

// NewOAuthService builds configs for every provider that has credentials
// set. Providers without credentials are simply absent.
func NewOAuthService(db *gorm.DB, auth AuthService, redirectURI string, credentials map[string][2]string) OAuthService {
	configs := make(map[string]*oauth2.Config)

	if cred, ok := credentials["google"]; ok && cred[0] != "" {
		configs["google"] = &oauth2.Config{
			ClientID:     cred[0],
			ClientSecret: cred[1],
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		}
	}
	if cred, ok := credentials["github"]; ok && cred[0] != "" {
		configs["github"] = &oauth2.Config{
			ClientID:     cred[0],
			ClientSecret: cred[1],
			RedirectURL:  redirectURI,
			Scopes:       []string{"user:email"},
			Endpoint:     endpoints.GitHub,
		}
	}
	if cred, ok := credentials["facebook"]; ok && cred[0] != "" {
		configs["facebook"] = &oauth2.Config{
			ClientID:     cred[0],
			ClientSecret: cred[1],
			RedirectURL:  redirectURI,
			Scopes:       []string{"email"},
			Endpoint:     endpoints.Facebook,
		}
	}

	return &oauthServiceImpl{
		db:                  db,
		auth:                auth,
		configs:             configs,
		httpClient:          http.DefaultClient,
		googleUserInfoURL:   "https://www.googleapis.com/oauth2/v2/userinfo",
		githubUserInfoURL:   "https://api.github.com/user",
		githubEmailsURL:     "https://api.github.com/user/emails",
		facebookUserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
	}
}

func (o *oauthServiceImpl) Providers() []string {
	providers := make([]string, 0, len(o.configs))
	for name := range o.configs {
		providers = append(providers, name)
	}
	return providers
}

func (o *oauthServiceImpl) AuthorizationURL(provider, state string) (string, error) {
	config, ok := o.configs[provider]
	if !ok {
		return "", fmt.Errorf("oauth provider %q is not configured", provider)
	}
	return config.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// Exchange trades the authorization code for a token and fetches the
// user's profile from the provider.
func (o *oauthServiceImpl) Exchange(ctx context.Context, provider, code string) (*OAuthUserInfo, error) {
	config, ok := o.configs[provider]
	if !ok {
		return nil, fmt.Errorf("oauth provider %q is not configured", provider)
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("could not exchange authorization code: %w", err)
	}

	switch provider {
	case "google":
		return o.fetchGoogleUser(ctx, token)
	case "github":
		return o.fetchGitHubUser(ctx, token)
	case "facebook":
		return o.fetchFacebookUser(ctx, token)
	default:
		return nil, fmt.Errorf("oauth provider %q is not supported", provider)
	}
}

func (o *oauthServiceImpl) fetchGoogleUser(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error) {
	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := o.getJSON(ctx, token, o.googleUserInfoURL, &payload); err != nil {
		return nil, err
	}
	if payload.Email == "" {
		return nil, fmt.Errorf("google profile has no email")
	}
	return &OAuthUserInfo{ProviderID: payload.ID, Email: payload.Email, FullName: payload.Name}, nil
}

func (o *oauthServiceImpl) fetchGitHubUser(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error) {
	var payload struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Login string `json:"login"`
	}
	if err := o.getJSON(ctx, token, o.githubUserInfoURL, &payload); err != nil {
		return nil, err
	}

	email := payload.Email
	if email == "" {
		// GitHub hides the email on the profile unless it is public; the
		// emails endpoint lists it regardless.
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := o.getJSON(ctx, token, o.githubEmailsURL, &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary {
				email = e.Email
				break
			}
		}
		if email == "" && len(emails) > 0 {
			email = emails[0].Email
		}
	}
	if email == "" {
		return nil, fmt.Errorf("github profile has no email")
	}

	name := payload.Name
	if name == "" {
		name = payload.Login
	}
	return &OAuthUserInfo{ProviderID: fmt.Sprintf("%d", payload.ID), Email: email, FullName: name}, nil
}

func (o *oauthServiceImpl) fetchFacebookUser(ctx context.Context, token *oauth2.Token) (*OAuthUserInfo, error) {
	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := o.getJSON(ctx, token, o.facebookUserInfoURL, &payload); err != nil {
		return nil, err
	}
	if payload.Email == "" {
		return nil, fmt.Errorf("facebook profile has no email")
	}
	return &OAuthUserInfo{ProviderID: payload.ID, Email: payload.Email, FullName: payload.Name}, nil
}

func (o *oauthServiceImpl) getJSON(ctx context.Context, token *oauth2.Token, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build userinfo request: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("userinfo request failed with status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode userinfo: %w", err)
	}
	return nil
}

// CreateOrGetUser finds the local account for a provider profile, linking
// an existing account with the same email or creating a fresh one.
func (o *oauthServiceImpl) CreateOrGetUser(provider string, info *OAuthUserInfo) (*models.User, error) {
	email := NormalizeEmail(info.Email)

	var user models.User
	err := o.db.Where("oauth_provider = ? AND oauth_id = ?", provider, info.ProviderID).First(&user).Error
	if err == nil {
		return &user, nil
	}

	err = o.db.Where("email = ?", email).First(&user).Error
	if err == nil {
		user.OAuthProvider = provider
		user.OAuthID = info.ProviderID
		if user.FullName == "" {
			user.FullName = info.FullName
		}
		if err := o.db.Save(&user).Error; err != nil {
			return nil, fmt.Errorf("link oauth account: %w", err)
		}
		log.Printf("SERVICE: Linked %s account to existing user %d", provider, user.ID)
		return &user, nil
	}

	hashed, err := o.auth.HashPassword(oauthPlaceholderPassword)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}
	user = models.User{
		Email:          email,
		HashedPassword: hashed,
		FullName:       info.FullName,
		OAuthProvider:  provider,
		OAuthID:        info.ProviderID,
		IsActive:       true,
	}
	if err := o.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create oauth user: %w", err)
	}
	log.Printf("SERVICE: Created user %d via %s oauth", user.ID, provider)
	return &user, nil
}
