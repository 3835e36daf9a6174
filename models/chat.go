package models

import "time"

// ChatSession is a conversation thread scoped to a course.
type ChatSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `json:"title,omitempty"`
	UserID    uint      `gorm:"index" json:"user_id"`
	CourseID  uint      `gorm:"index" json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is a single turn in a chat session. Role is "user" or
// "assistant".
type ChatMessage struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ChatSessionID uint       `gorm:"index" json:"chat_session_id"`
	Role          string     `json:"role"`
	Content       string     `json:"content"`
	CreatedAt     time.Time  `json:"created_at"`
	Citations     []Citation `gorm:"foreignKey:MessageID" json:"citations,omitempty"`
}

// Citation ties an assistant answer back to the source chunk it was
// grounded on.
type Citation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	MessageID      uint      `gorm:"index" json:"message_id"`
	DocumentID     uint      `json:"document_id"`
	ChunkID        *uint     `json:"chunk_id,omitempty"`
	PageNumber     int       `json:"page_number,omitempty"`
	Quote          string    `json:"quote,omitempty"`
	RelevanceScore float64   `json:"relevance_score,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
