// internal/handlers/course.go
package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/coursechain-backend/internal/services"
	"github.com/javajoker/coursechain-backend/internal/utils"
)

type CourseHandler struct {
	courseService *services.CourseService
	log           *logrus.Entry
}

func NewCourseHandler(courseService *services.CourseService) *CourseHandler {
	return &CourseHandler{
		courseService: courseService,
		log:           logrus.WithField("component", "http"),
	}
}

// GET /api/courses
func (h *CourseHandler) GetCourses(c *gin.Context) {
	courses, err := h.courseService.GetAllCourses(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to fetch courses")
		return
	}

	utils.SuccessResponse(c, courses)
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	courseID, ok := parseCourseID(c.Param("id"))
	if !ok {
		utils.BadRequestResponse(c, "Invalid course ID")
		return
	}

	course, err := h.courseService.GetCourseByID(c.Request.Context(), courseID)
	if err != nil {
		if errors.Is(err, services.ErrCourseNotFound) {
			utils.NotFoundResponse(c, "Course not found")
			return
		}
		h.fail(c, err, "Failed to fetch course")
		return
	}

	utils.SuccessResponse(c, course)
}

// GET /api/courses/count
func (h *CourseHandler) GetCourseCount(c *gin.Context) {
	count, err := h.courseService.GetCourseCount(c.Request.Context())
	if err != nil {
		h.fail(c, err, "Failed to get course count")
		return
	}

	utils.SuccessResponse(c, gin.H{"count": count})
}

// POST /api/courses/sync
func (h *CourseHandler) SyncCourses(c *gin.Context) {
	// A sync the client walks away from still runs to completion.
	h.courseService.SyncAllCourses(context.WithoutCancel(c.Request.Context()))

	utils.MessageResponse(c, "Courses synced successfully")
}

// GET /api/courses/author/:author
func (h *CourseHandler) GetCoursesByAuthor(c *gin.Context) {
	author := strings.TrimSpace(c.Param("author"))
	if author == "" {
		utils.BadRequestResponse(c, "Author address is required")
		return
	}

	courses, err := h.courseService.GetCoursesByAuthor(c.Request.Context(), author)
	if err != nil {
		h.fail(c, err, "Failed to fetch courses")
		return
	}

	utils.SuccessResponse(c, courses)
}

// GET /api/courses/purchased/:userAddress
func (h *CourseHandler) GetUserPurchasedCourses(c *gin.Context) {
	user := strings.TrimSpace(c.Param("key"))
	if user == "" {
		utils.BadRequestResponse(c, "User address is required")
		return
	}

	courses, err := h.courseService.GetUserPurchasedCourses(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err, "Failed to fetch purchased courses")
		return
	}

	utils.SuccessResponse(c, courses)
}

// GET /api/courses/purchased/:courseId/:userAddress
func (h *CourseHandler) CheckPurchaseStatus(c *gin.Context) {
	courseID, ok := parseCourseID(c.Param("key"))
	user := strings.TrimSpace(c.Param("userAddress"))
	if !ok || user == "" {
		utils.BadRequestResponse(c, "Invalid parameters")
		return
	}

	purchased, err := h.courseService.HasUserPurchasedCourse(c.Request.Context(), courseID, user)
	if err != nil {
		h.fail(c, err, "Failed to check purchase status")
		return
	}

	utils.SuccessResponse(c, gin.H{"hasPurchased": purchased})
}

// POST /api/courses/purchase
func (h *CourseHandler) RecordPurchase(c *gin.Context) {
	var req services.RecordPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		switch {
		case utils.HasTag(validationErrors, "required"):
			utils.BadRequestResponse(c, "Missing required fields")
		case utils.HasTag(validationErrors, "wei_amount"):
			utils.BadRequestResponse(c, "Invalid price")
		default:
			utils.BadRequestResponse(c, validationErrors[0].Message)
		}
		return
	}

	purchase, err := req.Purchase()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid price")
		return
	}

	if err := h.courseService.RecordPurchase(c.Request.Context(), purchase); err != nil {
		h.fail(c, err, "Failed to record purchase")
		return
	}

	utils.MessageResponse(c, "Purchase recorded successfully")
}

func (h *CourseHandler) fail(c *gin.Context, err error, message string) {
	h.log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error(message)
	utils.InternalErrorResponse(c, message)
}

func parseCourseID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
