package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"studymate/middleware"
	"studymate/models"
)

// CourseController handles CRUD over the caller's courses. Every query is
// scoped to the authenticated owner.
type CourseController struct {
	db *gorm.DB
}

// NewCourseController creates a new CourseController.
func NewCourseController(db *gorm.DB) *CourseController {
	return &CourseController{db: db}
}

// Create is the Gin handler for POST /api/courses/.
func (c *CourseController) Create(ctx *gin.Context) {
	var req models.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return
	}

	user := middleware.CurrentUser(ctx)
	course := models.Course{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     user.ID,
	}
	if err := c.db.Create(&course).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create course"})
		return
	}
	ctx.JSON(http.StatusCreated, course)
}

// List is the Gin handler for GET /api/courses/. Optional skip/limit
// query parameters page through the list.
func (c *CourseController) List(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	skip, _ := strconv.Atoi(ctx.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	var courses []models.Course
	err := c.db.Where("owner_id = ?", user.ID).
		Order("created_at DESC").Offset(skip).Limit(limit).Find(&courses).Error
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list courses"})
		return
	}
	ctx.JSON(http.StatusOK, courses)
}

// Get is the Gin handler for GET /api/courses/:course_id.
func (c *CourseController) Get(ctx *gin.Context) {
	course, ok := c.ownedCourse(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, course)
}

// Update is the Gin handler for PUT /api/courses/:course_id.
func (c *CourseController) Update(ctx *gin.Context) {
	course, ok := c.ownedCourse(ctx)
	if !ok {
		return
	}

	var req models.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return
	}

	course.Title = req.Title
	course.Description = req.Description
	if err := c.db.Save(course).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to update course"})
		return
	}
	ctx.JSON(http.StatusOK, course)
}

// Delete is the Gin handler for DELETE /api/courses/:course_id.
func (c *CourseController) Delete(ctx *gin.Context) {
	course, ok := c.ownedCourse(ctx)
	if !ok {
		return
	}
	if err := c.db.Delete(course).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to delete course"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Course deleted"})
}

// ownedCourse loads the path parameter's course and checks the caller owns
// it, writing the error response itself when it does not.
func (c *CourseController) ownedCourse(ctx *gin.Context) (*models.Course, bool) {
	courseID, err := strconv.ParseUint(ctx.Param("course_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid course id"})
		return nil, false
	}

	user := middleware.CurrentUser(ctx)
	var course models.Course
	if err := c.db.Where("id = ? AND owner_id = ?", courseID, user.ID).First(&course).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"detail": "Course not found"})
		return nil, false
	}
	return &course, true
}
