package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/amrnabil/educenter-api/internal/models"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
)

const scheduleCacheKey = "schedule:week"

type sessionRepository interface {
	Assign(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id string) (*models.SessionDetail, error)
	Update(ctx context.Context, id, classroomID, start, end string) error
	Delete(ctx context.Context, id string) error
	ListWeek(ctx context.Context) ([]models.SessionDetail, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type classroomReader interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AssignSessionRequest places a course into a classroom slot on one day.
type AssignSessionRequest struct {
	Day         string `json:"day" validate:"required"`
	CourseID    string `json:"course_id" validate:"required"`
	ClassroomID string `json:"classroom_id" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
}

// UpdateSessionRequest rewrites a session's slot.
type UpdateSessionRequest struct {
	ClassroomID string `json:"classroom_id" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
}

// ScheduleService owns the weekly grid: the seven fixed day buckets,
// constructed once at bootstrap and injected wherever schedule reads or
// writes happen.
type ScheduleService struct {
	sessions   sessionRepository
	courses    courseReader
	classrooms classroomReader
	cache      scheduleCache
	cacheTTL   time.Duration
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(sessions sessionRepository, courses courseReader, classrooms classroomReader, cache scheduleCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{sessions: sessions, courses: courses, classrooms: classrooms, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// AssignSession validates the request, checks the referenced course and
// classroom exist, and inserts the session unless its interval overlaps an
// existing one in the same classroom and day bucket.
func (s *ScheduleService) AssignSession(ctx context.Context, req AssignSessionRequest) (*models.SessionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	day, err := models.ParseDay(req.Day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid field day")
	}
	start, err := models.NormalizeTimeOfDay(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid field start_time")
	}
	end, err := models.NormalizeTimeOfDay(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid field end_time")
	}
	if end <= start {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.classrooms.FindByID(ctx, req.ClassroomID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}

	session := &models.Session{
		CourseID:    req.CourseID,
		ClassroomID: req.ClassroomID,
		Day:         day,
		StartTime:   start,
		EndTime:     end,
	}
	if err := s.sessions.Assign(ctx, session); err != nil {
		var conflict *models.SlotConflictError
		if errors.As(err, &conflict) {
			s.logger.Info("slot_conflict",
				zap.String("classroom_id", req.ClassroomID),
				zap.String("day", string(day)),
				zap.String("existing_session", conflict.Existing.ID))
			return nil, appErrors.Wrap(conflict, appErrors.ErrSlotConflict.Code, appErrors.ErrSlotConflict.Status, appErrors.ErrSlotConflict.Message)
		}
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign session")
	}
	s.invalidate(ctx)

	detail, err := s.sessions.FindByID(ctx, session.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session detail")
	}
	return detail, nil
}

// UpdateSession rewrites a session's classroom and interval.
func (s *ScheduleService) UpdateSession(ctx context.Context, id string, req UpdateSessionRequest) (*models.SessionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	start, err := models.NormalizeTimeOfDay(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid field start_time")
	}
	end, err := models.NormalizeTimeOfDay(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid field end_time")
	}
	if end <= start {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	if _, err := s.classrooms.FindByID(ctx, req.ClassroomID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	if err := s.sessions.Update(ctx, id, req.ClassroomID, start, end); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	s.invalidate(ctx)

	detail, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session detail")
	}
	return detail, nil
}

// DeleteSession removes a session from the schedule.
func (s *ScheduleService) DeleteSession(ctx context.Context, id string) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	s.invalidate(ctx)
	return nil
}

// GetSession loads one session with its context.
func (s *ScheduleService) GetSession(ctx context.Context, id string) (*models.SessionDetail, error) {
	detail, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return detail, nil
}

// ListSchedule returns all seven day buckets Saturday through Friday, each
// ordered ascending by start time with insertion order breaking ties.
func (s *ScheduleService) ListSchedule(ctx context.Context) (*models.WeekSchedule, error) {
	if s.cache != nil {
		var cached models.WeekSchedule
		if err := s.cache.Get(ctx, scheduleCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	sessions, err := s.sessions.ListWeek(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule")
	}

	buckets := make(map[models.Day][]models.SessionDetail, len(models.Week))
	for _, session := range sessions {
		buckets[session.Day] = append(buckets[session.Day], session)
	}
	week := &models.WeekSchedule{Days: make([]models.DaySchedule, 0, len(models.Week))}
	for _, day := range models.Week {
		bucket := buckets[day]
		if bucket == nil {
			bucket = []models.SessionDetail{}
		}
		week.Days = append(week.Days, models.DaySchedule{Day: day, Sessions: bucket})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, scheduleCacheKey, week, s.cacheTTL); err != nil {
			s.logger.Warn("schedule_cache_set_failed", zap.Error(err))
		}
	}
	return week, nil
}

func (s *ScheduleService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, scheduleCacheKey); err != nil {
		s.logger.Warn("schedule_cache_invalidate_failed", zap.Error(err))
	}
}
