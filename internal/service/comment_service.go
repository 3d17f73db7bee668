package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/amrnabil/educenter-api/internal/models"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
)

type commentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByCourse(ctx context.Context, courseID string) ([]models.CommentDetail, error)
	Ratings(ctx context.Context, courseID string) ([]float64, error)
}

type commentCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CommentRequest is a mobile review payload.
type CommentRequest struct {
	CourseID string  `json:"course_id" validate:"required"`
	Comment  string  `json:"comment" validate:"required"`
	Rating   float64 `json:"rating" validate:"required,gte=1,lte=5"`
}

// CommentService handles course reviews and the rating breakdown shown on
// the mobile course page.
type CommentService struct {
	repo      commentRepository
	courses   commentCourseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService constructs CommentService.
func NewCommentService(repo commentRepository, courses commentCourseReader, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// Post stores a student's comment and folds its rating into the course's
// running average.
func (s *CommentService) Post(ctx context.Context, studentID string, req CommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	comment := &models.Comment{
		CourseID:  req.CourseID,
		StudentID: studentID,
		Comment:   req.Comment,
		Rating:    req.Rating,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
	}
	s.logger.Info("comment_posted",
		zap.String("course_id", req.CourseID),
		zap.String("student_id", studentID),
		zap.Float64("rating", req.Rating))
	return comment, nil
}

// ListByCourse returns a course's comments with their authors.
func (s *CommentService) ListByCourse(ctx context.Context, courseID string) ([]models.CommentDetail, error) {
	comments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	if comments == nil {
		comments = []models.CommentDetail{}
	}
	return comments, nil
}

// Breakdown aggregates comment ratings into per-star percentages plus the
// plain average over all comments. Ratings are bucketed by rounding down, a
// 4.5 counts towards four stars.
func (s *CommentService) Breakdown(ctx context.Context, courseID string) (*models.RatingBreakdown, error) {
	ratings, err := s.repo.Ratings(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ratings")
	}

	breakdown := &models.RatingBreakdown{One: "0%", Two: "0%", Three: "0%", Four: "0%", Five: "0%"}
	if len(ratings) == 0 {
		return breakdown, nil
	}

	var counts [6]int
	var sum float64
	for _, rating := range ratings {
		sum += rating
		star := int(rating)
		if star < 1 {
			star = 1
		}
		if star > 5 {
			star = 5
		}
		counts[star]++
	}
	total := float64(len(ratings))
	percent := func(n int) string {
		return fmt.Sprintf("%g%%", float64(n)/total*100)
	}
	breakdown.One = percent(counts[1])
	breakdown.Two = percent(counts[2])
	breakdown.Three = percent(counts[3])
	breakdown.Four = percent(counts[4])
	breakdown.Five = percent(counts[5])
	breakdown.TotalRating = sum / total
	return breakdown, nil
}
