package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/amrnabil/educenter-api/internal/models"
	"github.com/amrnabil/educenter-api/internal/repository"
	appErrors "github.com/amrnabil/educenter-api/pkg/errors"
	"github.com/amrnabil/educenter-api/pkg/export"
)

type archiveRepository interface {
	EndCourse(ctx context.Context, courseID string) (*models.ArchiveDetail, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.ArchiveDetail, error)
}

type archiveCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// ExportResult bundles rendered bytes with response metadata.
type ExportResult struct {
	Content  []byte
	Filename string
	MimeType string
}

// ArchiveService terminates course runs and serves their history.
type ArchiveService struct {
	repo    archiveRepository
	courses archiveCourseReader
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewArchiveService constructs ArchiveService.
func NewArchiveService(repo archiveRepository, courses archiveCourseReader, logger *zap.Logger) *ArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveService{
		repo:    repo,
		courses: courses,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// EndCourse snapshots paid enrollment into a new archive, clears the live
// enrollments and sessions, and closes the course run. The whole operation is
// a single transaction.
func (s *ArchiveService) EndCourse(ctx context.Context, courseID string) (*models.ArchiveDetail, error) {
	archive, err := s.repo.EndCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrCourseNotInProgress) {
			return nil, appErrors.ErrNotInProgress
		}
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end course")
	}
	s.logger.Info("course_archived",
		zap.String("course_id", courseID),
		zap.Int("course_version", archive.CourseVersion),
		zap.Int("total_students", archive.TotalStudents),
		zap.Float64("total_earnings", archive.TotalEarnings))
	return archive, nil
}

// History returns a course's archives ordered by version.
func (s *ArchiveService) History(ctx context.Context, courseID string) ([]models.ArchiveDetail, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	archives, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list archives")
	}
	return archives, nil
}

// ExportHistory renders a course's archive history as CSV or PDF.
func (s *ArchiveService) ExportHistory(ctx context.Context, courseID, format string) (*ExportResult, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	archives, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list archives")
	}

	dataset := export.Dataset{
		Headers: []string{"Version", "Price", "Students", "Earnings", "Archived At"},
	}
	for _, archive := range archives {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Version":     fmt.Sprintf("%d", archive.CourseVersion),
			"Price":       fmt.Sprintf("%.2f", archive.CoursePrice),
			"Students":    fmt.Sprintf("%d", archive.TotalStudents),
			"Earnings":    fmt.Sprintf("%.2f", archive.TotalEarnings),
			"Archived At": archive.CreatedAt.Format("2006-01-02"),
		})
	}

	switch strings.ToLower(format) {
	case "", "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Content: content, Filename: fmt.Sprintf("%s-history.csv", course.ID), MimeType: "text/csv"}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, fmt.Sprintf("%s archive history", course.Name))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Content: content, Filename: fmt.Sprintf("%s-history.pdf", course.ID), MimeType: "application/pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid field format: must be csv or pdf")
	}
}
