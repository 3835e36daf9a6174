package models

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CitationPayload is the wire form of a citation inside an answer.
type CitationPayload struct {
	DocumentID     uint    `json:"document_id"`
	ChunkID        *uint   `json:"chunk_id,omitempty"`
	PageNumber     int     `json:"page_number,omitempty"`
	Quote          string  `json:"quote,omitempty"`
	Source         string  `json:"source,omitempty"`
	RelevanceScore float64 `json:"relevance_score,omitempty"`
}

// AnswerResponse is the result of running a question through the RAG
// pipeline.
type AnswerResponse struct {
	Answer        string            `json:"answer"`
	Confidence    float64           `json:"confidence"`
	Citations     []CitationPayload `json:"citations"`
	ChatSessionID uint              `json:"chat_session_id"`
}

// QuizQuestionPayload is the wire form of a quiz question.
type QuizQuestionPayload struct {
	ID            int      `json:"id"`
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// QuizResponse is a generated quiz with its questions.
type QuizResponse struct {
	QuizID         uint                  `json:"quiz_id"`
	DocumentID     uint                  `json:"document_id"`
	DocumentName   string                `json:"document_name"`
	TotalQuestions int                   `json:"total_questions"`
	QuestionTypes  []string              `json:"question_types"`
	Questions      []QuizQuestionPayload `json:"questions"`
}
