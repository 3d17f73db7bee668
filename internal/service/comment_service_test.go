package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amrnabil/educenter-api/internal/models"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
)

type mockCommentRepo struct {
	created  []*models.Comment
	comments []models.CommentDetail
	ratings  []float64
}

func (m *mockCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	comment.ID = "comment-1"
	m.created = append(m.created, comment)
	return nil
}

func (m *mockCommentRepo) ListByCourse(ctx context.Context, courseID string) ([]models.CommentDetail, error) {
	return m.comments, nil
}

func (m *mockCommentRepo) Ratings(ctx context.Context, courseID string) ([]float64, error) {
	return m.ratings, nil
}

func TestCommentPost(t *testing.T) {
	repo := &mockCommentRepo{}
	svc := NewCommentService(repo, &mockArchiveCourseReader{}, nil, nil)

	comment, err := svc.Post(context.Background(), "stu-1", CommentRequest{
		CourseID: "course-1",
		Comment:  "great course",
		Rating:   4.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "comment-1", comment.ID)
	assert.Equal(t, "stu-1", comment.StudentID)
	require.Len(t, repo.created, 1)
}

func TestCommentPostRatingOutOfRange(t *testing.T) {
	svc := NewCommentService(&mockCommentRepo{}, &mockArchiveCourseReader{}, nil, nil)

	for _, rating := range []float64{0, 5.5} {
		_, err := svc.Post(context.Background(), "stu-1", CommentRequest{
			CourseID: "course-1",
			Comment:  "meh",
			Rating:   rating,
		})
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	}
}

func TestCommentPostCourseMissing(t *testing.T) {
	svc := NewCommentService(&mockCommentRepo{}, &mockArchiveCourseReader{}, nil, nil)

	_, err := svc.Post(context.Background(), "stu-1", CommentRequest{
		CourseID: "missing",
		Comment:  "great course",
		Rating:   3,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCommentBreakdown(t *testing.T) {
	repo := &mockCommentRepo{ratings: []float64{5, 5, 4.5, 3, 1}}
	svc := NewCommentService(repo, &mockArchiveCourseReader{}, nil, nil)

	breakdown, err := svc.Breakdown(context.Background(), "course-1")
	require.NoError(t, err)
	// 4.5 rounds down into the four star bucket.
	assert.Equal(t, "40%", breakdown.Five)
	assert.Equal(t, "20%", breakdown.Four)
	assert.Equal(t, "20%", breakdown.Three)
	assert.Equal(t, "0%", breakdown.Two)
	assert.Equal(t, "20%", breakdown.One)
	assert.InDelta(t, 3.7, breakdown.TotalRating, 0.0001)
}

func TestCommentBreakdownEmpty(t *testing.T) {
	svc := NewCommentService(&mockCommentRepo{}, &mockArchiveCourseReader{}, nil, nil)

	breakdown, err := svc.Breakdown(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, "0%", breakdown.One)
	assert.Equal(t, "0%", breakdown.Five)
	assert.Zero(t, breakdown.TotalRating)
}
