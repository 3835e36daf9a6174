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

// AdminController exposes maintenance endpoints. Everything here sits
// behind the admin middleware.
type AdminController struct {
	db              *gorm.DB
	store           services.VectorStore
	indexingService *services.IndexingService
}

// NewAdminController creates a new AdminController.
func NewAdminController(db *gorm.DB, store services.VectorStore, indexingService *services.IndexingService) *AdminController {
	return &AdminController{db: db, store: store, indexingService: indexingService}
}

// ListUsers is the Gin handler for GET /api/admin/users.
func (c *AdminController) ListUsers(ctx *gin.Context) {
	var users []models.User
	if err := c.db.Order("created_at").Find(&users).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list users"})
		return
	}
	ctx.JSON(http.StatusOK, users)
}

// Stats is the Gin handler for GET /api/admin/stats. It reports row counts
// per table plus the live vector count.
func (c *AdminController) Stats(ctx *gin.Context) {
	stats := gin.H{}
	counts := map[string]interface{}{
		"users":         &models.User{},
		"courses":       &models.Course{},
		"documents":     &models.Document{},
		"chunks":        &models.DocumentChunk{},
		"chat_sessions": &models.ChatSession{},
		"quizzes":       &models.Quiz{},
	}
	for name, model := range counts {
		var count int64
		if err := c.db.Model(model).Count(&count).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to gather stats"})
			return
		}
		stats[name] = count
	}

	if vectorCount, err := c.store.Count(ctx.Request.Context()); err != nil {
		stats["vectors"] = nil
		stats["vector_store_error"] = err.Error()
	} else {
		stats["vectors"] = vectorCount
	}
	ctx.JSON(http.StatusOK, stats)
}

// ReindexDocument is the Gin handler for
// POST /api/admin/reindex/:document_id. Unlike uploads, reindexing runs
// synchronously so the admin sees failures immediately.
func (c *AdminController) ReindexDocument(ctx *gin.Context) {
	documentID, err := strconv.ParseUint(ctx.Param("document_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid document id"})
		return
	}

	chunkCount, err := c.indexingService.ReindexDocument(ctx.Request.Context(), uint(documentID))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Reindex failed: " + err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Document reindexed", "chunks": chunkCount})
}

// ToggleUserStatus is the Gin handler for
// POST /api/admin/toggle-user-status/:user_id.
func (c *AdminController) ToggleUserStatus(ctx *gin.Context) {
	userID, err := strconv.ParseUint(ctx.Param("user_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid user id"})
		return
	}

	admin := middleware.CurrentUser(ctx)
	if admin.ID == uint(userID) {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Cannot change your own status"})
		return
	}

	var user models.User
	if err := c.db.First(&user, userID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
		return
	}

	user.IsActive = !user.IsActive
	if err := c.db.Save(&user).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to update user"})
		return
	}
	ctx.JSON(http.StatusOK, user)
}

// DocumentVectors is the Gin handler for
// GET /api/admin/vectors/:document_id. It dumps a document's vector store
// entries for debugging retrieval problems.
func (c *AdminController) DocumentVectors(ctx *gin.Context) {
	documentID, err := strconv.ParseUint(ctx.Param("document_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid document id"})
		return
	}

	matches, err := c.store.ListByDocument(ctx.Request.Context(), uint(documentID))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to read vector store"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"document_id": documentID, "count": len(matches), "vectors": matches})
}
