package controller

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studymate/middleware"
	"studymate/models"
	"studymate/services"
)

// DocumentController handles uploads and document lifecycle. Uploads come
// back immediately; extraction and indexing run in a background goroutine.
type DocumentController struct {
	db              *gorm.DB
	fileService     *services.FileService
	indexingService *services.IndexingService
}

// NewDocumentController creates a new DocumentController.
func NewDocumentController(db *gorm.DB, fileService *services.FileService, indexingService *services.IndexingService) *DocumentController {
	return &DocumentController{db: db, fileService: fileService, indexingService: indexingService}
}

// Upload is the Gin handler for POST /api/documents/upload. It expects a
// multipart form with a "file" part and a "course_id" field.
func (c *DocumentController) Upload(ctx *gin.Context) {
	courseID, err := strconv.ParseUint(ctx.PostForm("course_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid or missing course_id"})
		return
	}

	user := middleware.CurrentUser(ctx)
	var course models.Course
	if err := c.db.Where("id = ? AND owner_id = ?", courseID, user.ID).First(&course).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Course not found"})
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Missing file upload"})
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Could not read uploaded file"})
		return
	}
	defer src.Close()

	document, err := c.fileService.SaveUpload(c.db, src, fileHeader.Filename, course.ID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	// Extraction and indexing can take a while; do not hold the request
	// open for it. The request context dies with the response, so the
	// goroutine gets a fresh one.
	go func(documentID uint) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("INDEXER ERROR: Panic while processing document %d: %v", documentID, r)
			}
		}()
		c.indexingService.ProcessDocument(context.Background(), documentID)
	}(document.ID)

	ctx.JSON(http.StatusCreated, document)
}

// Get is the Gin handler for GET /api/documents/:document_id. The frontend
// polls it for processing status.
func (c *DocumentController) Get(ctx *gin.Context) {
	document, ok := c.ownedDocument(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, document)
}

// ListByCourse is the Gin handler for GET /api/documents/course/:course_id.
func (c *DocumentController) ListByCourse(ctx *gin.Context) {
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
	if err := c.db.Where("course_id = ?", course.ID).Order("created_at DESC").Find(&documents).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list documents"})
		return
	}
	ctx.JSON(http.StatusOK, documents)
}

// Delete is the Gin handler for DELETE /api/documents/:document_id. It
// removes the vectors, the chunks, the file, and the record, in that order.
func (c *DocumentController) Delete(ctx *gin.Context) {
	document, ok := c.ownedDocument(ctx)
	if !ok {
		return
	}

	if err := c.indexingService.PurgeDocumentData(ctx.Request.Context(), document); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to remove document data"})
		return
	}
	if err := c.fileService.DeleteFile(document); err != nil {
		log.Printf("SERVICE: Could not delete file for document %d: %v", document.ID, err)
	}
	if err := c.db.Delete(document).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to delete document"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}

// ownedDocument loads the path parameter's document and verifies the
// caller owns its course.
func (c *DocumentController) ownedDocument(ctx *gin.Context) (*models.Document, bool) {
	documentID, err := strconv.ParseUint(ctx.Param("document_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid document id"})
		return nil, false
	}

	var document models.Document
	if err := c.db.First(&document, documentID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Document not found"})
		return nil, false
	}

	user := middleware.CurrentUser(ctx)
	var course models.Course
	if err := c.db.Where("id = ? AND owner_id = ?", document.CourseID, user.ID).First(&course).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Document not found"})
		return nil, false
	}
	return &document, true
}
