package models

import "time"

// User is an account that can own courses and chat sessions. Accounts are
// created either by password registration or through an OAuth provider.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex" json:"email"`
	HashedPassword string    `json:"-"`
	FullName       string    `json:"full_name,omitempty"`
	OAuthProvider  string    `json:"oauth_provider,omitempty"`
	OAuthID        string    `json:"-"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	IsAdmin        bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Course groups the documents a user studies together.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"index" json:"title"`
	Description string    `json:"description,omitempty"`
	OwnerID     uint      `gorm:"index" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
