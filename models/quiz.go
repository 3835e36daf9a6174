package models

import "time"

// Quiz is a generated set of questions for a single document.
type Quiz struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	DocumentID    uint           `gorm:"index" json:"document_id"`
	UserID        uint           `gorm:"index" json:"user_id"`
	Title         string         `json:"title"`
	QuestionTypes string         `json:"question_types"`
	CreatedAt     time.Time      `json:"created_at"`
	Questions     []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

// QuizQuestion is one question of a quiz. Type is "mcq" or "true_false";
// Options holds the four MCQ choices as a JSON array and stays empty for
// true/false questions.
type QuizQuestion struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	QuizID        uint   `gorm:"index" json:"-"`
	Index         int    `json:"id"`
	Type          string `json:"type"`
	Question      string `json:"question"`
	Options       string `json:"-"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}
