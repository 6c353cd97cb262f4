package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/GOG-777/course-registration-api/internal/models"
	appErrors "github.com/GOG-777/course-registration-api/pkg/errors"
)

type resultCourseReader interface {
	ListForResult(ctx context.Context, level, semester int) ([]models.Course, error)
}

type scoreSheetStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ComputeResultRequest describes a GPA/CGPA computation payload. Scores are
// keyed by "level-code", e.g. "100-GES 100.1".
type ComputeResultRequest struct {
	Level  int               `json:"level" validate:"required"`
	Mode   models.ResultMode `json:"mode" validate:"required"`
	Scores models.ScoreSheet `json:"scores"`
}

const scoreSheetKeyPrefix = "scores:"

// ResultService computes GPA/CGPA aggregates and keeps per-user score sheets.
// The computation itself is a pure function of the catalog slice and the
// submitted score map.
type ResultService struct {
	courses   resultCourseReader
	scores    scoreSheetStore
	scoresTTL time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResultService constructs ResultService.
func NewResultService(courses resultCourseReader, scores scoreSheetStore, scoresTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{courses: courses, scores: scores, scoresTTL: scoresTTL, validator: validate, logger: logger}
}

// Compute evaluates the GPA (per semester) or CGPA (both semesters) for a
// level against the stored catalog. Courses without a recorded score are
// excluded from both sums. Any out-of-range score aborts the computation and
// reports every offending course code.
func (s *ResultService) Compute(ctx context.Context, req ComputeResultRequest) (*models.ResultSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}
	if !models.ValidLevel(req.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "level must be 100, 200, 300 or 400")
	}
	if !models.ValidResultMode(req.Mode) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mode must be semester1, semester2 or cgpa")
	}

	semester := 0
	switch req.Mode {
	case models.ResultModeSemester1:
		semester = models.SemesterFirst
	case models.ResultModeSemester2:
		semester = models.SemesterSecond
	}

	courses, err := s.courses.ListForResult(ctx, req.Level, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}

	summary := &models.ResultSummary{
		Level:   req.Level,
		Mode:    req.Mode,
		Courses: []models.CourseResult{},
	}
	var invalid []string

	for _, course := range courses {
		key := fmt.Sprintf("%d-%s", req.Level, course.Code)
		score, ok := req.Scores[key]
		if !ok {
			continue
		}

		band, inRange := models.BandForScore(score)
		if !inRange {
			invalid = append(invalid, course.Code)
			continue
		}

		quality := course.Credits * band.Point
		summary.TotalCredits += course.Credits
		summary.TotalQualityPoints += quality
		summary.Courses = append(summary.Courses, models.CourseResult{
			CourseCode:    course.Code,
			CourseTitle:   course.Title,
			Credits:       course.Credits,
			Score:         score,
			Grade:         band.Grade,
			GradePoint:    band.Point,
			QualityPoints: quality,
		})
	}

	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, appErrors.Clone(appErrors.ErrInvalidScores,
			fmt.Sprintf("invalid scores for: %s; scores must be between 0 and 100", strings.Join(invalid, ", ")))
	}

	if summary.TotalCredits > 0 {
		summary.FinalResult = float64(summary.TotalQualityPoints) / float64(summary.TotalCredits)
	}
	return summary, nil
}

// LoadScores returns the saved score sheet for a user, empty when none exists.
func (s *ResultService) LoadScores(ctx context.Context, userID string) (models.ScoreSheet, error) {
	sheet := models.ScoreSheet{}
	if s.scores == nil {
		return sheet, nil
	}
	if err := s.scores.Get(ctx, scoreSheetKeyPrefix+userID, &sheet); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return models.ScoreSheet{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score sheet")
	}
	return sheet, nil
}

// SaveScores replaces the user's score sheet after validating every entry.
// Keys must follow the "level-code" shape Compute looks up; anything else
// could never match a catalog course and is rejected here.
func (s *ResultService) SaveScores(ctx context.Context, userID string, sheet models.ScoreSheet) error {
	var badKeys, badScores []string
	for key, score := range sheet {
		if !validScoreKey(key) {
			badKeys = append(badKeys, key)
			continue
		}
		if score < 0 || score > 100 {
			badScores = append(badScores, key)
		}
	}
	if len(badKeys) > 0 {
		sort.Strings(badKeys)
		return appErrors.Clone(appErrors.ErrInvalidScores,
			fmt.Sprintf("invalid score keys: %s; keys must use the level-code format", strings.Join(badKeys, ", ")))
	}
	if len(badScores) > 0 {
		sort.Strings(badScores)
		return appErrors.Clone(appErrors.ErrInvalidScores,
			fmt.Sprintf("invalid scores for: %s; scores must be between 0 and 100", strings.Join(badScores, ", ")))
	}

	if s.scores == nil {
		return nil
	}
	if err := s.scores.Set(ctx, scoreSheetKeyPrefix+userID, sheet, s.scoresTTL); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save score sheet")
	}
	return nil
}

func validScoreKey(key string) bool {
	prefix, code, ok := strings.Cut(key, "-")
	if !ok || code == "" {
		return false
	}
	level, err := strconv.Atoi(prefix)
	if err != nil {
		return false
	}
	return models.ValidLevel(level)
}

// ClearScores removes the user's saved score sheet.
func (s *ResultService) ClearScores(ctx context.Context, userID string) error {
	if s.scores == nil {
		return nil
	}
	if err := s.scores.Delete(ctx, scoreSheetKeyPrefix+userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear score sheet")
	}
	return nil
}
