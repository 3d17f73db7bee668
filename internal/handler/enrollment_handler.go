package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amrnabil/educenter-api/internal/service"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
	"github.com/amrnabil/educenter-api/pkg/response"
)

// EnrollmentHandler wires the dashboard enrollment endpoints.
type EnrollmentHandler struct {
	service *service.EnrollmentService
}

// NewEnrollmentHandler creates a new handler.
func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// ListStudents godoc
// @Summary List enrolled students
// @Tags Enrollment
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/students [get]
func (h *EnrollmentHandler) ListStudents(c *gin.Context) {
	enrollments, err := h.service.ListStudents(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}

// AddStudent godoc
// @Summary Enroll a student
// @Description Enrolls a student into a course; raises a capacity notification when the count hits the ceiling
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param payload body service.AddStudentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) AddStudent(c *gin.Context) {
	var req service.AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	course, err := h.service.AddStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// RemoveStudent godoc
// @Summary Remove a student from a course
// @Description Removing a student who is not enrolled is a no-op
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param payload body service.RemoveStudentRequest true "Removal payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/remove [post]
func (h *EnrollmentHandler) RemoveStudent(c *gin.Context) {
	var req service.RemoveStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid removal payload"))
		return
	}
	course, err := h.service.RemoveStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// UpdatePayments godoc
// @Summary Update payment flags
// @Description Bulk edit of the paid flag for a course's enrollments
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.UpdatePaymentsRequest true "Payment updates"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/payments [put]
func (h *EnrollmentHandler) UpdatePayments(c *gin.Context) {
	var req service.UpdatePaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payments payload"))
		return
	}
	enrollments, err := h.service.UpdatePayments(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}
