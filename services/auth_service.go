package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"studymate/models"
)

// ErrInvalidCredentials is returned when the email/password pair does not
// match an active account.
var ErrInvalidCredentials = errors.New("incorrect email or password")

// TokenClaims is what the auth middleware gets back from a parsed token.
type TokenClaims struct {
	Email  string
	UserID uint
}

// AuthService issues and verifies credentials: bcrypt for passwords,
// HS256 JWTs for API access.
type AuthService interface {
	HashPassword(password string) (string, error)
	VerifyPassword(plain, hashed string) bool
	Authenticate(db *gorm.DB, email, password string) (*models.User, error)
	CreateAccessToken(user *models.User) (string, error)
	ParseToken(tokenString string) (*TokenClaims, error)
}

type authServiceImpl struct {
	secretKey   []byte
	tokenExpiry time.Duration
}

// NewAuthService creates an AuthService signing tokens with secretKey that
// expire after expireMinutes.
func NewAuthService(secretKey string, expireMinutes int) AuthService {
	return &authServiceImpl{
		secretKey:   []byte(secretKey),
		tokenExpiry: time.Duration(expireMinutes) * time.Minute,
	}
}

func (a *authServiceImpl) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (a *authServiceImpl) VerifyPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// Authenticate looks up the user by normalized email and checks the
// password. The caller cannot distinguish a missing account from a wrong
// password.
func (a *authServiceImpl) Authenticate(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if !a.VerifyPassword(password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (a *authServiceImpl) CreateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":     user.Email,
		"user_id": float64(user.ID),
		"exp":     time.Now().Add(a.tokenExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (a *authServiceImpl) ParseToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	email, _ := claims["sub"].(string)
	if email == "" {
		return nil, errors.New("token missing subject")
	}
	userID, _ := claims["user_id"].(float64)

	return &TokenClaims{Email: email, UserID: uint(userID)}, nil
}
