package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/amrnabil/educenter-api/internal/models"
	"github.com/amrnabil/educenter-api/internal/service"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
	"github.com/amrnabil/educenter-api/pkg/response"
)

// CourseHandler wires the dashboard course endpoints.
type CourseHandler struct {
	courses  *service.CourseService
	archives *service.ArchiveService
}

// NewCourseHandler creates a new handler.
func NewCourseHandler(courses *service.CourseService, archives *service.ArchiveService) *CourseHandler {
	return &CourseHandler{courses: courses, archives: archives}
}

func courseFilterFromQuery(c *gin.Context) models.CourseFilter {
	filter := models.CourseFilter{
		Search: c.Query("search"),
		Level:  models.CourseLevel(c.Query("level")),
	}
	if raw := c.Query("max_price"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MaxPrice = v
		}
	}
	if raw := c.Query("registration_open"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.RegistrationOpen = &v
		}
	}
	if raw := c.Query("in_progress"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.InProgress = &v
		}
	}
	if raw := c.Query("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.Page = v
		}
	}
	if raw := c.Query("page_size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			filter.PageSize = v
		}
	}
	return filter
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param search query string false "Search by course, instructor or tag name"
// @Param max_price query number false "Maximum price (exclusive)"
// @Param level query string false "Course level"
// @Param registration_open query bool false "Filter by registration flag"
// @Param in_progress query bool false "Filter by in-progress flag"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses, pagination, err := h.courses.ListCourses(c.Request.Context(), courseFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, &pagination)
}

// Get godoc
// @Summary Get course
// @Description Returns the course with instructor, tags and enrolled students
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.courses.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.CourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.courses.UpdateCourse(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete course
// @Description Removes a course and everything attached to it
// @Tags Courses
// @Param id path string true "Course ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.DeleteCourse(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// EndCourse godoc
// @Summary End a course run
// @Description Archives paid enrollments, clears the roster and sessions, and closes the run
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id}/end [post]
func (h *CourseHandler) EndCourse(c *gin.Context) {
	archive, err := h.archives.EndCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, archive)
}

// Archives godoc
// @Summary List course archives
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/archives [get]
func (h *CourseHandler) Archives(c *gin.Context) {
	archives, err := h.archives.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, archives, nil)
}

// ExportArchives godoc
// @Summary Export course archive history
// @Tags Courses
// @Produce octet-stream
// @Param id path string true "Course ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} byte
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/archives/export [get]
func (h *CourseHandler) ExportArchives(c *gin.Context) {
	result, err := h.archives.ExportHistory(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.MimeType, result.Content)
}

// Instructors godoc
// @Summary List instructors
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *CourseHandler) Instructors(c *gin.Context) {
	teachers, err := h.courses.ListInstructors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// Tags godoc
// @Summary List tags
// @Tags Tags
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tags [get]
func (h *CourseHandler) Tags(c *gin.Context) {
	tags, err := h.courses.ListTags(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tags, nil)
}

// UpdateTag godoc
// @Summary Rename tag
// @Tags Tags
// @Accept json
// @Produce json
// @Param id path string true "Tag ID"
// @Param payload body service.TagRequest true "Tag payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tags/{id} [put]
func (h *CourseHandler) UpdateTag(c *gin.Context) {
	var req service.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tag payload"))
		return
	}
	if err := h.courses.UpdateTag(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteTag godoc
// @Summary Delete tag
// @Tags Tags
// @Param id path string true "Tag ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tags/{id} [delete]
func (h *CourseHandler) DeleteTag(c *gin.Context) {
	if err := h.courses.DeleteTag(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
