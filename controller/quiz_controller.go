package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studymate/middleware"
	"studymate/models"
	"studymate/services"
)

// QuizController handles quiz generation and retrieval.
type QuizController struct {
	db          *gorm.DB
	quizService services.QuizService
}

// NewQuizController creates a new QuizController.
func NewQuizController(db *gorm.DB, quizService services.QuizService) *QuizController {
	return &QuizController{db: db, quizService: quizService}
}

// Generate is the Gin handler for POST /api/quiz/generate.
func (c *QuizController) Generate(ctx *gin.Context) {
	var req models.QuizGenerationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	if !c.ownsDocument(ctx, req.DocumentID, user.ID) {
		return
	}

	response, err := c.quizService.GenerateQuiz(ctx.Request.Context(), req.DocumentID, user.ID, req.NumQuestions, req.QuestionTypes)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to generate quiz"})
		return
	}
	ctx.JSON(http.StatusCreated, response)
}

// EligibleDocuments is the Gin handler for
// GET /api/quiz/documents/:course_id. It lists the processed documents a
// quiz can be generated from.
func (c *QuizController) EligibleDocuments(ctx *gin.Context) {
	courseID, err := strconv.ParseUint(ctx.Param("course_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid course id"})
		return
	}

	user := middleware.CurrentUser(ctx)
	var course models.Course
	if err := c.db.Where("id = ? AND owner_id = ?", courseID, user.ID).First(&course).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Course not found"})
		return
	}

	var documents []models.Document
	err = c.db.Where("course_id = ? AND is_processed = ?", course.ID, true).
		Order("created_at DESC").Find(&documents).Error
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list documents"})
		return
	}
	ctx.JSON(http.StatusOK, documents)
}

// Get is the Gin handler for GET /api/quiz/:quiz_id.
func (c *QuizController) Get(ctx *gin.Context) {
	quizID, err := strconv.ParseUint(ctx.Param("quiz_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid quiz id"})
		return
	}

	user := middleware.CurrentUser(ctx)
	response, err := c.quizService.GetQuiz(uint(quizID), user.ID)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Quiz not found"})
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// List is the Gin handler for GET /api/quiz/.
func (c *QuizController) List(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	quizzes, err := c.quizService.ListQuizzes(user.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list quizzes"})
		return
	}
	ctx.JSON(http.StatusOK, quizzes)
}

func (c *QuizController) ownsDocument(ctx *gin.Context, documentID, userID uint) bool {
	var document models.Document
	if err := c.db.First(&document, documentID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Document not found"})
		return false
	}
	var course models.Course
	if err := c.db.Where("id = ? AND owner_id = ?", document.CourseID, userID).First(&course).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Document not found"})
		return false
	}
	return true
}
