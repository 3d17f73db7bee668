package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrnabil/educenter-api/internal/models"
	"github.com/amrnabil/educenter-api/internal/repository"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrolled      map[string]bool
	notifyOn      bool
	lastPolicy    models.CapacityPolicy
	deleted       []string
	listed        []models.EnrollmentDetail
	paymentsErr   error
	courseMissing bool
}

func (m *mockEnrollmentRepo) Enroll(ctx context.Context, courseID, studentID string, policy models.CapacityPolicy) (*models.Enrollment, *models.Notification, error) {
	m.lastPolicy = policy
	if m.courseMissing {
		return nil, nil, sql.ErrNoRows
	}
	key := courseID + "/" + studentID
	if m.enrolled[key] {
		return nil, nil, repository.ErrDuplicateEnrollment
	}
	if m.enrolled == nil {
		m.enrolled = make(map[string]bool)
	}
	m.enrolled[key] = true
	enrollment := &models.Enrollment{ID: "enr-1", CourseID: courseID, StudentID: studentID}
	if m.notifyOn {
		return enrollment, &models.Notification{ID: "not-1", CourseID: courseID}, nil
	}
	return enrollment, nil, nil
}

func (m *mockEnrollmentRepo) DeleteOne(ctx context.Context, courseID, studentID string) error {
	m.deleted = append(m.deleted, courseID+"/"+studentID)
	return nil
}

func (m *mockEnrollmentRepo) ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error) {
	return m.listed, nil
}

func (m *mockEnrollmentRepo) UpdatePayments(ctx context.Context, courseID string, updates []models.PaymentUpdate) error {
	return m.paymentsErr
}

type mockStudentReader struct {
	missing bool
}

func (m *mockStudentReader) FindStudentRef(ctx context.Context, id string) (*models.StudentRef, error) {
	if m.missing || id == "missing" {
		return nil, sql.ErrNoRows
	}
	return &models.StudentRef{ID: id, Email: id + "@example.com", FirstName: "Aya", LastName: "Hassan"}, nil
}

type mockCourseDetailReader struct {
	missing bool
}

func (m *mockCourseDetailReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if m.missing || id == "missing" {
		return nil, sql.ErrNoRows
	}
	return &models.Course{ID: id, Name: "Algebra"}, nil
}

func (m *mockCourseDetailReader) Detail(ctx context.Context, id string) (*models.CourseDetail, error) {
	if m.missing || id == "missing" {
		return nil, sql.ErrNoRows
	}
	return &models.CourseDetail{Course: models.Course{ID: id, Name: "Algebra"}}, nil
}

func newEnrollmentService(repo *mockEnrollmentRepo) *EnrollmentService {
	return NewEnrollmentService(repo, &mockStudentReader{}, &mockCourseDetailReader{}, nil, nil)
}

func TestEnrollmentServiceAddStudentUsesExactPolicy(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := newEnrollmentService(repo)

	detail, err := svc.AddStudent(context.Background(), AddStudentRequest{StudentID: "stu-1", CourseID: "course-1"})
	require.NoError(t, err)
	assert.Equal(t, "course-1", detail.ID)
	assert.Equal(t, models.CapacityPolicyExact, repo.lastPolicy)
}

func TestEnrollmentServiceRegisterUsesAtLeastPolicy(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := newEnrollmentService(repo)

	student, err := svc.Register(context.Background(), "stu-1", RegisterRequest{CourseID: "course-1"})
	require.NoError(t, err)
	assert.Equal(t, "stu-1", student.ID)
	assert.Equal(t, models.CapacityPolicyAtLeast, repo.lastPolicy)
}

func TestEnrollmentServiceDuplicate(t *testing.T) {
	repo := &mockEnrollmentRepo{enrolled: map[string]bool{"course-1/stu-1": true}}
	svc := newEnrollmentService(repo)

	_, err := svc.AddStudent(context.Background(), AddStudentRequest{StudentID: "stu-1", CourseID: "course-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Status, appErr.Status)
}

func TestEnrollmentServiceStudentMissing(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollmentRepo{})

	_, err := svc.AddStudent(context.Background(), AddStudentRequest{StudentID: "missing", CourseID: "course-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestEnrollmentServiceCourseMissing(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollmentRepo{courseMissing: true})

	_, err := svc.Register(context.Background(), "stu-1", RegisterRequest{CourseID: "gone"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestEnrollmentServiceRemoveStudentNoop(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	svc := newEnrollmentService(repo)

	detail, err := svc.RemoveStudent(context.Background(), RemoveStudentRequest{StudentID: "stu-1", CourseID: "course-1"})
	require.NoError(t, err)
	assert.Equal(t, "course-1", detail.ID)
	assert.Equal(t, []string{"course-1/stu-1"}, repo.deleted)
}

func TestEnrollmentServiceUpdatePaymentsUnknownID(t *testing.T) {
	repo := &mockEnrollmentRepo{paymentsErr: repository.ErrUnknownEnrollment}
	svc := newEnrollmentService(repo)

	_, err := svc.UpdatePayments(context.Background(), "course-1", UpdatePaymentsRequest{
		Updates: []models.PaymentUpdate{{EnrollmentID: "enr-404", Paid: true}},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCapacityPolicyReached(t *testing.T) {
	assert.True(t, models.CapacityPolicyExact.Reached(30, 30))
	assert.False(t, models.CapacityPolicyExact.Reached(31, 30))
	assert.True(t, models.CapacityPolicyAtLeast.Reached(30, 30))
	assert.True(t, models.CapacityPolicyAtLeast.Reached(31, 30))
	assert.False(t, models.CapacityPolicyAtLeast.Reached(29, 30))
	assert.False(t, models.CapacityPolicyExact.Reached(0, 0))
	assert.False(t, models.CapacityPolicyAtLeast.Reached(5, 0))
}
