package models

// RegisterRequest creates a new password-based account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

// LoginRequest exchanges credentials for an access token.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// PasswordCheckRequest asks for strength feedback on a candidate password.
type PasswordCheckRequest struct {
	Password string `json:"password"`
}

// CourseRequest creates or updates a course.
type CourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// QuestionRequest asks a question about a course's documents. When
// ChatSessionID is zero a new session is started.
type QuestionRequest struct {
	Question      string `json:"question" binding:"required"`
	CourseID      uint   `json:"course_id" binding:"required"`
	ChatSessionID uint   `json:"chat_session_id,omitempty"`
}

// QuizGenerationRequest asks for a quiz over one document.
type QuizGenerationRequest struct {
	DocumentID    uint     `json:"document_id" binding:"required"`
	NumQuestions  int      `json:"num_questions"`
	QuestionTypes []string `json:"question_types"`
}
