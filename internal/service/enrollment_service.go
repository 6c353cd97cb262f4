package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/GOG-777/course-registration-api/internal/models"
	"github.com/GOG-777/course-registration-api/internal/repository"
	appErrors "github.com/GOG-777/course-registration-api/pkg/errors"
	"github.com/GOG-777/course-registration-api/pkg/export"
)

type enrollmentLedger interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	SumEnrolledCredits(ctx context.Context, userID string) (int, error)
	Enroll(ctx context.Context, userID string, course *models.Course, maxCredits int) (*models.Enrollment, error)
	Drop(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error)
	ListLedger(ctx context.Context) ([]models.LedgerEntry, error)
	ListCourseStudents(ctx context.Context, courseID string) ([]models.CourseStudent, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
}

// EnrollRequest describes an enroll payload.
type EnrollRequest struct {
	CourseID string `json:"course_id" validate:"required"`
}

// MyEnrollments is the student view of the ledger with credit budget info.
type MyEnrollments struct {
	Enrollments      []models.EnrollmentDetail `json:"enrollments"`
	TotalCredits     int                       `json:"total_credits"`
	RemainingCredits int                       `json:"remaining_credits"`
	MaxCredits       int                       `json:"max_credits"`
}

// ExceedsCreditLimit is the credit-cap guard: it rejects an enroll attempt
// that would push the enrolled total past the cap. Landing exactly on the
// cap is allowed.
func ExceedsCreditLimit(current, adding int) bool {
	return current+adding > models.MaxCredits
}

// EnrollmentService orchestrates ledger transitions and queries.
type EnrollmentService struct {
	ledger    enrollmentLedger
	courses   courseReader
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(ledger enrollmentLedger, courses courseReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		ledger:    ledger,
		courses:   courses,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Enroll registers a user in a course, reusing a previously dropped row when
// one exists. The ledger repository serializes the transition; this layer
// resolves the course and translates outcomes.
func (s *EnrollmentService) Enroll(ctx context.Context, userID string, req EnrollRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	// A course heavier than the whole cap can never be enrolled.
	if ExceedsCreditLimit(0, course.Credits) {
		s.metrics.RecordTransition("rejected")
		return nil, appErrors.Clone(appErrors.ErrCreditLimit,
			fmt.Sprintf("course exceeds the %d credit limit on its own", models.MaxCredits))
	}

	enrollment, err := s.ledger.Enroll(ctx, userID, &course.Course, models.MaxCredits)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyEnrolled):
			s.metrics.RecordTransition("rejected")
			return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled in this course")
		case errors.Is(err, repository.ErrCreditLimit):
			s.metrics.RecordTransition("rejected")
			return nil, appErrors.Clone(appErrors.ErrCreditLimit,
				fmt.Sprintf("enrolling would exceed the %d credit limit", models.MaxCredits))
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
		}
	}

	if enrollment.StatusAt.Equal(enrollment.CreatedAt) {
		s.metrics.RecordTransition("enroll")
	} else {
		s.metrics.RecordTransition("reenroll")
	}

	return &models.EnrollmentDetail{
		Enrollment:     *enrollment,
		CourseCode:     course.Code,
		CourseTitle:    course.Title,
		Credits:        course.Credits,
		CourseLevel:    course.Level,
		CourseSemester: course.Semester,
	}, nil
}

// Drop marks the user's enrolled row for a course as dropped.
func (s *EnrollmentService) Drop(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	enrollment, err := s.ledger.Drop(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found or already dropped")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop course")
	}
	s.metrics.RecordTransition("drop")
	return enrollment, nil
}

// ListMine returns the user's enrollments, any status, with credit budget info.
func (s *EnrollmentService) ListMine(ctx context.Context, userID string) (*MyEnrollments, error) {
	enrollments, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	total := 0
	for _, e := range enrollments {
		if e.Status == models.EnrollmentStatusEnrolled {
			total += e.Credits
		}
	}

	remaining := models.MaxCredits - total
	if remaining < 0 {
		remaining = 0
	}
	return &MyEnrollments{
		Enrollments:      enrollments,
		TotalCredits:     total,
		RemainingCredits: remaining,
		MaxCredits:       models.MaxCredits,
	}, nil
}

// Ledger returns every enrollment across users, newest status change first.
func (s *EnrollmentService) Ledger(ctx context.Context) ([]models.LedgerEntry, error) {
	entries, err := s.ledger.ListLedger(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ledger")
	}
	return entries, nil
}

// CourseRoster returns enrolled students for a course.
func (s *EnrollmentService) CourseRoster(ctx context.Context, courseID string) ([]models.CourseStudent, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	students, err := s.ledger.ListCourseStudents(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course students")
	}
	return students, nil
}

// ExportLedger renders the full ledger as CSV or PDF bytes.
func (s *EnrollmentService) ExportLedger(ctx context.Context, format string) ([]byte, string, error) {
	entries, err := s.Ledger(ctx)
	if err != nil {
		return nil, "", err
	}

	headers := []string{"Student", "Student No", "Email", "Level", "Course", "Title", "Credits", "Status", "Status At"}
	rows := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, map[string]string{
			"Student":    e.StudentName,
			"Student No": e.StudentNo,
			"Email":      e.StudentEmail,
			"Level":      fmt.Sprintf("%d", e.StudentLevel),
			"Course":     e.CourseCode,
			"Title":      e.CourseTitle,
			"Credits":    fmt.Sprintf("%d", e.Credits),
			"Status":     string(e.Status),
			"Status At":  e.StatusAt.Format("2006-01-02 15:04"),
		})
	}
	dataset := export.Dataset{Headers: headers, Rows: rows}

	switch format {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Enrollment Ledger")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
