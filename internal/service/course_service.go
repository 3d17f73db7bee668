package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/amrnabil/educenter-api/internal/models"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
)

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Detail(ctx context.Context, id string) (*models.CourseDetail, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, int, error)
	Create(ctx context.Context, course *models.Course, tagNames []string) error
	Update(ctx context.Context, course *models.Course, tagNames []string) error
	Delete(ctx context.Context, id string) error
	ListTags(ctx context.Context) ([]models.Tag, error)
	UpdateTag(ctx context.Context, id, name string) error
	DeleteTag(ctx context.Context, id string) error
}

type instructorReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	List(ctx context.Context) ([]models.Teacher, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CourseRequest carries dashboard create/update payloads. Tags may name tags
// that do not exist yet; they are created on the fly.
type CourseRequest struct {
	Name             string   `json:"name" validate:"required"`
	Bio              string   `json:"bio"`
	Description      string   `json:"description"`
	Price            float64  `json:"price" validate:"gte=0"`
	InstructorID     string   `json:"instructor_id" validate:"required"`
	Level            string   `json:"level"`
	RegistrationOpen bool     `json:"registration_open"`
	InProgress       bool     `json:"in_progress"`
	Tags             []string `json:"tags"`
}

// TagRequest renames a tag.
type TagRequest struct {
	Name string `json:"name" validate:"required"`
}

// CatalogPage is a cached page of the mobile catalog listing.
type CatalogPage struct {
	Courses    []models.CourseSummary `json:"courses"`
	Pagination models.Pagination      `json:"pagination"`
}

// CourseService owns course and tag management for the dashboard and the
// read-mostly catalog surface for mobile clients.
type CourseService struct {
	repo        courseRepository
	instructors instructorReader
	cache       catalogCache
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, instructors instructorReader, cache catalogCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		repo:        repo,
		instructors: instructors,
		cache:       cache,
		cacheTTL:    cacheTTL,
		validator:   validate,
		logger:      logger,
	}
}

// CreateCourse validates and persists a new course with its tags.
func (s *CourseService) CreateCourse(ctx context.Context, req CourseRequest) (*models.CourseDetail, error) {
	course, err := s.buildCourse(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, course, req.Tags); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.invalidateCatalog(ctx)
	s.logger.Info("course_created", zap.String("course_id", course.ID), zap.String("name", course.Name))
	return s.GetCourse(ctx, course.ID)
}

// UpdateCourse overwrites an existing course. A nil Tags slice leaves the tag
// links untouched; an empty one clears them.
func (s *CourseService) UpdateCourse(ctx context.Context, id string, req CourseRequest) (*models.CourseDetail, error) {
	course, err := s.buildCourse(ctx, req)
	if err != nil {
		return nil, err
	}
	course.ID = id
	if err := s.repo.Update(ctx, course, req.Tags); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.invalidateCatalog(ctx)
	return s.GetCourse(ctx, id)
}

func (s *CourseService) buildCourse(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	level := models.CourseLevel(req.Level)
	if req.Level == "" {
		level = models.LevelAll
	}
	if !models.ValidLevel(level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid field level")
	}
	if _, err := s.instructors.FindByID(ctx, req.InstructorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return &models.Course{
		Name:             req.Name,
		Bio:              req.Bio,
		Description:      req.Description,
		Price:            req.Price,
		InstructorID:     req.InstructorID,
		RegistrationOpen: req.RegistrationOpen,
		InProgress:       req.InProgress,
		Level:            level,
	}, nil
}

// GetCourse returns the full course view with instructor, tags and students.
func (s *CourseService) GetCourse(ctx context.Context, id string) (*models.CourseDetail, error) {
	detail, err := s.repo.Detail(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return detail, nil
}

// ListCourses serves the dashboard listing straight from the database.
func (s *CourseService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationFor(filter, total), nil
}

// Catalog serves the mobile listing, cached per filter combination.
func (s *CourseService) Catalog(ctx context.Context, filter models.CourseFilter) (*CatalogPage, error) {
	key := catalogCacheKey(filter)
	if s.cache != nil {
		var cached CatalogPage
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if err != appErrors.ErrCacheMiss {
			s.logger.Warn("catalog cache read failed", zap.Error(err))
		}
	}

	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if courses == nil {
		courses = []models.CourseSummary{}
	}
	page := &CatalogPage{Courses: courses, Pagination: paginationFor(filter, total)}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, page, s.cacheTTL); err != nil {
			s.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return page, nil
}

// DeleteCourse removes a course and cascades over enrollments, sessions,
// comments, notifications and archives.
func (s *CourseService) DeleteCourse(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.invalidateCatalog(ctx)
	s.logger.Info("course_deleted", zap.String("course_id", id))
	return nil
}

// ListInstructors returns every teacher for the dashboard pickers.
func (s *CourseService) ListInstructors(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.instructors.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	return teachers, nil
}

// ListTags returns every tag.
func (s *CourseService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.repo.ListTags(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tags")
	}
	return tags, nil
}

// UpdateTag renames a tag.
func (s *CourseService) UpdateTag(ctx context.Context, id string, req TagRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tag payload")
	}
	if err := s.repo.UpdateTag(ctx, id, req.Name); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "tag not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tag")
	}
	s.invalidateCatalog(ctx)
	return nil
}

// DeleteTag removes a tag and its course links.
func (s *CourseService) DeleteTag(ctx context.Context, id string) error {
	if err := s.repo.DeleteTag(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "tag not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete tag")
	}
	s.invalidateCatalog(ctx)
	return nil
}

func (s *CourseService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "catalog:*"); err != nil {
		s.logger.Warn("catalog cache invalidation failed", zap.Error(err))
	}
}

func catalogCacheKey(filter models.CourseFilter) string {
	open := "any"
	if filter.RegistrationOpen != nil {
		open = fmt.Sprintf("%t", *filter.RegistrationOpen)
	}
	inProgress := "any"
	if filter.InProgress != nil {
		inProgress = fmt.Sprintf("%t", *filter.InProgress)
	}
	return fmt.Sprintf("catalog:%s:%g:%s:%s:%s:%d:%d",
		filter.Search, filter.MaxPrice, filter.Level, open, inProgress, filter.Page, filter.PageSize)
}

func paginationFor(filter models.CourseFilter, total int) models.Pagination {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
