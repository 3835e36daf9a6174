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

// QuestionController handles question answering and chat history.
type QuestionController struct {
	db         *gorm.DB
	ragService services.RAGService
}

// NewQuestionController creates a new QuestionController.
func NewQuestionController(db *gorm.DB, ragService services.RAGService) *QuestionController {
	return &QuestionController{db: db, ragService: ragService}
}

// Ask is the Gin handler for POST /api/questions/ask. It runs the question
// through the retrieval pipeline and returns the answer with citations.
func (c *QuestionController) Ask(ctx *gin.Context) {
	var req models.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	var course models.Course
	if err := c.db.Where("id = ? AND owner_id = ?", req.CourseID, user.ID).First(&course).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Course not found"})
		return
	}

	response, err := c.ragService.ProcessQuestion(ctx.Request.Context(), req.Question, course.ID, user.ID, req.ChatSessionID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to answer question"})
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// ListSessions is the Gin handler for GET /api/questions/chat-sessions.
// An optional course_id query parameter narrows the list.
func (c *QuestionController) ListSessions(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	query := c.db.Where("user_id = ?", user.ID)
	if raw := ctx.Query("course_id"); raw != "" {
		courseID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid course id"})
			return
		}
		query = query.Where("course_id = ?", courseID)
	}

	var sessions []models.ChatSession
	if err := query.Order("created_at DESC").Find(&sessions).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list chat sessions"})
		return
	}
	ctx.JSON(http.StatusOK, sessions)
}

// GetSessionMessages is the Gin handler for
// GET /api/questions/chat-sessions/:session_id.
func (c *QuestionController) GetSessionMessages(ctx *gin.Context) {
	session, ok := c.ownedSession(ctx)
	if !ok {
		return
	}

	var messages []models.ChatMessage
	err := c.db.Preload("Citations").
		Where("chat_session_id = ?", session.ID).Order("created_at").Find(&messages).Error
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to load messages"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"session": session, "messages": messages})
}

// DeleteSession is the Gin handler for
// DELETE /api/questions/chat-sessions/:session_id.
func (c *QuestionController) DeleteSession(ctx *gin.Context) {
	session, ok := c.ownedSession(ctx)
	if !ok {
		return
	}

	var messageIDs []uint
	c.db.Model(&models.ChatMessage{}).Where("chat_session_id = ?", session.ID).Pluck("id", &messageIDs)
	if len(messageIDs) > 0 {
		c.db.Where("message_id IN ?", messageIDs).Delete(&models.Citation{})
	}
	c.db.Where("chat_session_id = ?", session.ID).Delete(&models.ChatMessage{})

	if err := c.db.Delete(session).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to delete chat session"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Chat session deleted"})
}

func (c *QuestionController) ownedSession(ctx *gin.Context) (*models.ChatSession, bool) {
	sessionID, err := strconv.ParseUint(ctx.Param("session_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid session id"})
		return nil, false
	}

	user := middleware.CurrentUser(ctx)
	var session models.ChatSession
	if err := c.db.Where("id = ? AND user_id = ?", sessionID, user.ID).First(&session).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Chat session not found"})
		return nil, false
	}
	return &session, true
}
