package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amrnabil/educenter-api/internal/service"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
	"github.com/amrnabil/educenter-api/pkg/response"
)

// CatalogHandler serves the mobile surface: browsing courses, the weekly
// schedule, self-registration and reviews.
type CatalogHandler struct {
	courses     *service.CourseService
	enrollments *service.EnrollmentService
	comments    *service.CommentService
	schedule    *service.ScheduleService
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(courses *service.CourseService, enrollments *service.EnrollmentService, comments *service.CommentService, schedule *service.ScheduleService) *CatalogHandler {
	return &CatalogHandler{courses: courses, enrollments: enrollments, comments: comments, schedule: schedule}
}

// Courses godoc
// @Summary Browse the course catalog
// @Tags Catalog
// @Produce json
// @Param search query string false "Search by course, instructor or tag name"
// @Param max_price query number false "Maximum price (exclusive)"
// @Param level query string false "Course level"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /catalog/courses [get]
func (h *CatalogHandler) Courses(c *gin.Context) {
	page, err := h.courses.Catalog(c.Request.Context(), courseFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page.Courses, &page.Pagination)
}

// Course godoc
// @Summary Course page
// @Description Returns the course with comments and the rating breakdown
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /catalog/courses/{id} [get]
func (h *CatalogHandler) Course(c *gin.Context) {
	id := c.Param("id")
	detail, err := h.courses.GetCourse(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	comments, err := h.comments.ListByCourse(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	breakdown, err := h.comments.Breakdown(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"course":   detail,
		"comments": comments,
		"ratings":  breakdown,
	}, nil)
}

// Schedule godoc
// @Summary Weekly schedule
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/schedule [get]
func (h *CatalogHandler) Schedule(c *gin.Context) {
	week, err := h.schedule.ListSchedule(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// Tags godoc
// @Summary List tags
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/tags [get]
func (h *CatalogHandler) Tags(c *gin.Context) {
	tags, err := h.courses.ListTags(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tags, nil)
}

// Register godoc
// @Summary Register into a course
// @Description Enrolls the authenticated student into the given course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /catalog/register [post]
func (h *CatalogHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}
	student, err := h.enrollments.Register(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Comment godoc
// @Summary Post a course review
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /catalog/comments [post]
func (h *CatalogHandler) Comment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}
	comment, err := h.comments.Post(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}
