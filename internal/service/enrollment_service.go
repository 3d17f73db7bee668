package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/amrnabil/educenter-api/internal/models"
	"github.com/amrnabil/educenter-api/internal/repository"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
)

type enrollmentRepository interface {
	Enroll(ctx context.Context, courseID, studentID string, policy models.CapacityPolicy) (*models.Enrollment, *models.Notification, error)
	DeleteOne(ctx context.Context, courseID, studentID string) error
	ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error)
	UpdatePayments(ctx context.Context, courseID string, updates []models.PaymentUpdate) error
}

type studentReader interface {
	FindStudentRef(ctx context.Context, id string) (*models.StudentRef, error)
}

type courseDetailReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Detail(ctx context.Context, id string) (*models.CourseDetail, error)
}

// AddStudentRequest is the dashboard payload for enrolling a student.
type AddStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// RemoveStudentRequest is the dashboard payload for removing a student.
type RemoveStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// RegisterRequest is the mobile payload for self-registration.
type RegisterRequest struct {
	CourseID string `json:"id" validate:"required"`
}

// UpdatePaymentsRequest is the dashboard bulk paid-flag edit.
type UpdatePaymentsRequest struct {
	Updates []models.PaymentUpdate `json:"students" validate:"required,min=1,dive"`
}

// EnrollmentService orchestrates enrollment workflows. The two enrollment
// entry points compare the count against the capacity ceiling differently
// (dashboard: equality, mobile: greater-or-equal); the split is intentional
// and kept explicit through the capacity policy.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentReader
	courses   courseDetailReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, courses courseDetailReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, courses: courses, validator: validate, logger: logger}
}

// AddStudent enrolls a student from the dashboard and returns the updated
// course detail. A capacity notification is raised when the enrollment count
// lands exactly on the ceiling.
func (s *EnrollmentService) AddStudent(ctx context.Context, req AddStudentRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.enroll(ctx, req.CourseID, req.StudentID, models.CapacityPolicyExact); err != nil {
		return nil, err
	}
	detail, err := s.courses.Detail(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course detail")
	}
	return detail, nil
}

// Register enrolls the calling student and returns the student identity. The
// notification fires once the count has reached or passed the ceiling.
func (s *EnrollmentService) Register(ctx context.Context, studentID string, req RegisterRequest) (*models.StudentRef, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	student, err := s.enroll(ctx, req.CourseID, studentID, models.CapacityPolicyAtLeast)
	if err != nil {
		return nil, err
	}
	return student, nil
}

func (s *EnrollmentService) enroll(ctx context.Context, courseID, studentID string, policy models.CapacityPolicy) (*models.StudentRef, error) {
	student, err := s.students.FindStudentRef(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	_, notification, err := s.repo.Enroll(ctx, courseID, studentID, policy)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEnrollment) {
			return nil, appErrors.ErrAlreadyEnrolled
		}
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	if notification != nil {
		s.logger.Info("capacity_notification_raised",
			zap.String("course_id", courseID),
			zap.String("notification_id", notification.ID))
	}
	return student, nil
}

// RemoveStudent deletes one matching enrollment. Removing a student who is
// not enrolled is a silent no-op; the unchanged course detail comes back
// either way.
func (s *EnrollmentService) RemoveStudent(ctx context.Context, req RemoveStudentRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.students.FindStudentRef(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.DeleteOne(ctx, req.CourseID, req.StudentID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student")
	}
	detail, err := s.courses.Detail(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course detail")
	}
	return detail, nil
}

// ListStudents returns the enrollments of a course with student identities.
func (s *EnrollmentService) ListStudents(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	enrollments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return enrollments, nil
}

// UpdatePayments applies a bulk paid-flag edit and returns the refreshed
// enrollment list.
func (s *EnrollmentService) UpdatePayments(ctx context.Context, courseID string, req UpdatePaymentsRequest) ([]models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.UpdatePayments(ctx, courseID, req.Updates); err != nil {
		if errors.Is(err, repository.ErrUnknownEnrollment) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid field students: unknown enrollment id")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payments")
	}
	enrollments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return enrollments, nil
}
