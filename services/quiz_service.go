package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"studymate/models"
)

const quizPromptTemplate = `You are an expert quiz creator. Create %d educational quiz questions based on the document content below.

DOCUMENT: %s
CONTENT:
%s

INSTRUCTIONS:
1. Create %d Multiple Choice Questions (4 options each, A-D format)
2. Create %d True/False Questions
3. Focus on KEY CONCEPTS, FACTS, and IMPORTANT DETAILS from the document
4. Make questions test comprehension, not just memorization
5. Ensure MCQ distractors are plausible but clearly wrong
6. Write clear, specific questions that reference the document content

AVOID:
- Generic questions like "This document contains..."
- Questions not based on document content
- Ambiguous or unclear questions

OUTPUT FORMAT (JSON only, no extra text):
{
    "questions": [
        {
            "id": 1,
            "type": "mcq",
            "question": "...",
            "options": ["A) ...", "B) ...", "C) ...", "D) ..."],
            "correct_answer": "B",
            "explanation": "..."
        },
        {
            "id": 2,
            "type": "true_false",
            "question": "...",
            "correct_answer": "True",
            "explanation": "..."
        }
    ]
}`

const (
	quizMaxContentChars = 4000
	quizMaxSourceChunks = 10
)

// QuizService generates quizzes from a document's chunks and stores them.
type QuizService interface {
	GenerateQuiz(ctx context.Context, documentID, userID uint, numQuestions int, questionTypes []string) (*models.QuizResponse, error)
	GetQuiz(quizID, userID uint) (*models.QuizResponse, error)
	ListQuizzes(userID uint) ([]models.Quiz, error)
}

type quizServiceImpl struct {
	db  *gorm.DB
	llm LLMService
}

// NewQuizService creates a QuizService backed by the given LLM.
func NewQuizService(db *gorm.DB, llm LLMService) QuizService {
	return &quizServiceImpl{db: db, llm: llm}
}

func (q *quizServiceImpl) GenerateQuiz(ctx context.Context, documentID, userID uint, numQuestions int, questionTypes []string) (*models.QuizResponse, error) {
	if numQuestions <= 0 {
		numQuestions = 10
	}
	if len(questionTypes) == 0 {
		questionTypes = []string{"mcq", "true_false"}
	}

	var document models.Document
	if err := q.db.First(&document, documentID).Error; err != nil {
		return nil, fmt.Errorf("document %d not found: %w", documentID, err)
	}

	var chunks []models.DocumentChunk
	err := q.db.Where("document_id = ?", documentID).
		Order("chunk_index").Limit(quizMaxSourceChunks).Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no content found for document %s", document.OriginalFilename)
	}

	contents := make([]string, 0, len(chunks))
	for _, c := range chunks {
		contents = append(contents, c.Content)
	}
	content := strings.Join(contents, "\n\n")
	if len(content) > quizMaxContentChars {
		content = content[:quizMaxContentChars]
	}

	questions := q.generateQuestions(ctx, content, document.OriginalFilename, numQuestions, questionTypes)

	quiz := &models.Quiz{
		DocumentID:    documentID,
		UserID:        userID,
		Title:         fmt.Sprintf("Quiz: %s", document.OriginalFilename),
		QuestionTypes: strings.Join(questionTypes, ","),
	}
	if err := q.db.Create(quiz).Error; err != nil {
		return nil, fmt.Errorf("save quiz: %w", err)
	}
	for i := range questions {
		questions[i].QuizID = quiz.ID
		if err := q.db.Create(&questions[i]).Error; err != nil {
			return nil, fmt.Errorf("save quiz question: %w", err)
		}
	}

	return buildQuizResponse(quiz, document.OriginalFilename, questions), nil
}

func (q *quizServiceImpl) GetQuiz(quizID, userID uint) (*models.QuizResponse, error) {
	var quiz models.Quiz
	err := q.db.Preload("Questions").Where("id = ? AND user_id = ?", quizID, userID).First(&quiz).Error
	if err != nil {
		return nil, fmt.Errorf("quiz not found: %w", err)
	}

	var document models.Document
	name := ""
	if err := q.db.First(&document, quiz.DocumentID).Error; err == nil {
		name = document.OriginalFilename
	}
	return buildQuizResponse(&quiz, name, quiz.Questions), nil
}

func (q *quizServiceImpl) ListQuizzes(userID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	if err := q.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&quizzes).Error; err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// generateQuestions asks the LLM for a quiz and repairs or replaces the
// reply when it cannot be used.
func (q *quizServiceImpl) generateQuestions(ctx context.Context, content, documentName string, numQuestions int, questionTypes []string) []models.QuizQuestion {
	numMCQ, numTF := splitQuestionCounts(numQuestions, questionTypes)

	prompt := fmt.Sprintf(quizPromptTemplate, numQuestions, documentName, content, numMCQ, numTF)
	reply, err := q.llm.Generate(ctx, prompt)
	if err != nil {
		log.Printf("SERVICE: Quiz generation failed, using fallback: %v", err)
		return fallbackQuizQuestions(content, documentName, numQuestions)
	}

	questions, err := parseQuizReply(reply, numQuestions)
	if err != nil || len(questions) == 0 {
		log.Printf("SERVICE: Could not parse quiz reply, using fallback: %v", err)
		return fallbackQuizQuestions(content, documentName, numQuestions)
	}
	return questions
}

// splitQuestionCounts divides the requested total between MCQ and
// true/false. A single requested type takes everything.
func splitQuestionCounts(numQuestions int, questionTypes []string) (numMCQ, numTF int) {
	wantMCQ := false
	wantTF := false
	for _, t := range questionTypes {
		switch t {
		case "mcq":
			wantMCQ = true
		case "true_false":
			wantTF = true
		}
	}

	switch {
	case wantMCQ && wantTF:
		numMCQ = numQuestions / 2
		numTF = numQuestions - numMCQ
	case wantMCQ:
		numMCQ = numQuestions
	case wantTF:
		numTF = numQuestions
	default:
		numTF = numQuestions
	}
	return numMCQ, numTF
}

type rawQuizQuestion struct {
	ID            int      `json:"id"`
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

type rawQuizPayload struct {
	Questions []rawQuizQuestion `json:"questions"`
}

// parseQuizReply pulls the outermost JSON object out of the LLM reply and
// validates every question. MCQs without four options are dropped.
func parseQuizReply(reply string, maxQuestions int) ([]models.QuizQuestion, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var payload rawQuizPayload
	if err := json.Unmarshal([]byte(reply[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decode quiz JSON: %w", err)
	}

	questions := payload.Questions
	if len(questions) > maxQuestions {
		questions = questions[:maxQuestions]
	}

	cleaned := make([]models.QuizQuestion, 0, len(questions))
	for _, raw := range questions {
		qType := raw.Type
		if qType == "" {
			qType = "mcq"
		}
		question := models.QuizQuestion{
			Index:         len(cleaned) + 1,
			Type:          qType,
			Question:      strings.TrimSpace(raw.Question),
			CorrectAnswer: strings.TrimSpace(raw.CorrectAnswer),
			Explanation:   strings.TrimSpace(raw.Explanation),
		}

		if qType == "mcq" {
			if len(raw.Options) < 4 {
				continue
			}
			optionsJSON, err := json.Marshal(raw.Options[:4])
			if err != nil {
				continue
			}
			question.Options = string(optionsJSON)
		}

		if question.Question == "" || question.CorrectAnswer == "" {
			continue
		}
		cleaned = append(cleaned, question)
	}
	return cleaned, nil
}

// fallbackQuizQuestions builds simple true/false questions straight from
// the document text when the LLM reply is unusable.
func fallbackQuizQuestions(content, documentName string, numQuestions int) []models.QuizQuestion {
	var sentences []string
	for _, s := range strings.Split(content, ".") {
		s = strings.TrimSpace(s)
		if len(s) > 30 {
			sentences = append(sentences, s)
		}
	}

	questions := make([]models.QuizQuestion, 0, numQuestions)
	for _, sentence := range sentences {
		if len(questions) >= numQuestions {
			break
		}
		questions = append(questions, models.QuizQuestion{
			Index:         len(questions) + 1,
			Type:          "true_false",
			Question:      fmt.Sprintf("According to the document: %s.", sentence),
			CorrectAnswer: "True",
			Explanation:   fmt.Sprintf("This information is directly stated in %s.", documentName),
		})
	}

	for len(questions) < numQuestions {
		questions = append(questions, models.QuizQuestion{
			Index:         len(questions) + 1,
			Type:          "true_false",
			Question:      fmt.Sprintf("The document '%s' covers the course material it was uploaded for.", documentName),
			CorrectAnswer: "True",
			Explanation:   "Based on the document content.",
		})
	}
	return questions
}

func buildQuizResponse(quiz *models.Quiz, documentName string, questions []models.QuizQuestion) *models.QuizResponse {
	payloads := make([]models.QuizQuestionPayload, 0, len(questions))
	for _, q := range questions {
		payload := models.QuizQuestionPayload{
			ID:            q.Index,
			Type:          q.Type,
			Question:      q.Question,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
		if q.Options != "" {
			var options []string
			if err := json.Unmarshal([]byte(q.Options), &options); err == nil {
				payload.Options = options
			}
		}
		payloads = append(payloads, payload)
	}

	return &models.QuizResponse{
		QuizID:         quiz.ID,
		DocumentID:     quiz.DocumentID,
		DocumentName:   documentName,
		TotalQuestions: len(payloads),
		QuestionTypes:  strings.Split(quiz.QuestionTypes, ","),
		Questions:      payloads,
	}
}
