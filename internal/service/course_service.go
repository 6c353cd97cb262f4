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
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error)
	FindByID(ctx context.Context, id string) (*models.CourseDetail, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, id string, title *string, credits, level, semester *int) (*models.Course, error)
	Delete(ctx context.Context, id string) error
}

// CreateCourseRequest describes an admin catalog insertion.
type CreateCourseRequest struct {
	Code     string `json:"code" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Credits  int    `json:"credits" validate:"required,min=1"`
	Level    int    `json:"level" validate:"required"`
	Semester int    `json:"semester" validate:"required"`
}

// UpdateCourseRequest describes a partial catalog update.
type UpdateCourseRequest struct {
	Title    *string `json:"title"`
	Credits  *int    `json:"credits" validate:"omitempty,min=1"`
	Level    *int    `json:"level"`
	Semester *int    `json:"semester"`
}

const catalogCachePrefix = "catalog:"

// CourseService orchestrates catalog reads and admin mutations.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns catalog entries, optionally filtered by level and semester.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error) {
	if filter.Level != 0 && !models.ValidLevel(filter.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "level must be 100, 200, 300 or 400")
	}
	if filter.Semester != 0 && !models.ValidSemester(filter.Semester) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2")
	}

	cacheKey := fmt.Sprintf("%slist:%d:%d", catalogCachePrefix, filter.Level, filter.Semester)
	var cached []models.CourseDetail
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	courses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	if err := s.cache.Set(ctx, cacheKey, courses, 0); err != nil {
		s.logger.Warn("failed to cache course list", zap.Error(err))
	}
	return courses, nil
}

// Get returns a single catalog entry.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	cacheKey := catalogCachePrefix + "course:" + id
	var cached models.CourseDetail
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if err := s.cache.Set(ctx, cacheKey, course, 0); err != nil {
		s.logger.Warn("failed to cache course", zap.Error(err))
	}
	return course, nil
}

// Create inserts a new catalog offering.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.CourseDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if !models.ValidLevel(req.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "level must be 100, 200, 300 or 400")
	}
	if !models.ValidSemester(req.Semester) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2")
	}

	exists, err := s.repo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
	}

	course := &models.Course{
		Code:     req.Code,
		Title:    req.Title,
		Credits:  req.Credits,
		Level:    req.Level,
		Semester: req.Semester,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		if errors.Is(err, repository.ErrDuplicateCourseCode) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.invalidateCatalog(ctx)
	return &models.CourseDetail{Course: *course}, nil
}

// Update applies a partial update to a catalog offering.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if req.Level != nil && !models.ValidLevel(*req.Level) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "level must be 100, 200, 300 or 400")
	}
	if req.Semester != nil && !models.ValidSemester(*req.Semester) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be 1 or 2")
	}

	course, err := s.repo.Update(ctx, id, req.Title, req.Credits, req.Level, req.Semester)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.invalidateCatalog(ctx)
	return course, nil
}

// Delete removes a catalog offering.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.invalidateCatalog(ctx)
	return nil
}

func (s *CourseService) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, catalogCachePrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}
