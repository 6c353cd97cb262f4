package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GOG-777/course-registration-api/internal/models"
	"github.com/GOG-777/course-registration-api/internal/repository"
	appErrors "github.com/GOG-777/course-registration-api/pkg/errors"
)

type mockCourseRepo struct {
	courses    []models.CourseDetail
	listErr    error
	course     *models.CourseDetail
	findErr    error
	exists     bool
	createErr  error
	created    *models.Course
	updated    *models.Course
	updateErr  error
	deleteErr  error
	lastFilter models.CourseFilter
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.courses, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.course, nil
}

func (m *mockCourseRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return m.exists, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, id string, title *string, credits, level, semester *int) (*models.Course, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return m.updated, nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	return m.deleteErr
}

func TestCourseServiceListPassesFilter(t *testing.T) {
	repo := &mockCourseRepo{courses: []models.CourseDetail{{Course: models.Course{Code: "CSC101"}}}}
	svc := NewCourseService(repo, nil, nil, nil)

	courses, err := svc.List(context.Background(), models.CourseFilter{Level: 100, Semester: 2})
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, models.CourseFilter{Level: 100, Semester: 2}, repo.lastFilter)
}

func TestCourseServiceListRejectsBadFilter(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{}, nil, nil, nil)

	var appErr *appErrors.Error
	_, err := svc.List(context.Background(), models.CourseFilter{Level: 150})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.List(context.Background(), models.CourseFilter{Semester: 3})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCourseServiceGetNotFound(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{findErr: sql.ErrNoRows}, nil, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCourseServiceCreate(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := NewCourseService(repo, nil, nil, nil)

	detail, err := svc.Create(context.Background(), CreateCourseRequest{
		Code: "CSC101", Title: "Intro to Computing", Credits: 3, Level: 100, Semester: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "CSC101", detail.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, 3, repo.created.Credits)
}

func TestCourseServiceCreateValidation(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{}, nil, nil, nil)
	var appErr *appErrors.Error

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		Code: "CSC101", Title: "Intro", Credits: 3, Level: 500, Semester: 1,
	})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	_, err = svc.Create(context.Background(), CreateCourseRequest{
		Code: "CSC101", Title: "Intro", Credits: 3, Level: 100, Semester: 3,
	})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCourseServiceCreateDuplicateCode(t *testing.T) {
	var appErr *appErrors.Error

	svc := NewCourseService(&mockCourseRepo{exists: true}, nil, nil, nil)
	_, err := svc.Create(context.Background(), CreateCourseRequest{
		Code: "CSC101", Title: "Intro", Credits: 3, Level: 100, Semester: 1,
	})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)

	svc = NewCourseService(&mockCourseRepo{createErr: repository.ErrDuplicateCourseCode}, nil, nil, nil)
	_, err = svc.Create(context.Background(), CreateCourseRequest{
		Code: "CSC101", Title: "Intro", Credits: 3, Level: 100, Semester: 1,
	})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestCourseServiceUpdateNotFound(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{updateErr: sql.ErrNoRows}, nil, nil, nil)

	title := "Renamed"
	_, err := svc.Update(context.Background(), "missing", UpdateCourseRequest{Title: &title})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCourseServiceUpdateValidatesPartialFields(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{}, nil, nil, nil)

	badLevel := 123
	_, err := svc.Update(context.Background(), "c1", UpdateCourseRequest{Level: &badLevel})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestCourseServiceDelete(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{}, nil, nil, nil)
	require.NoError(t, svc.Delete(context.Background(), "c1"))

	svc = NewCourseService(&mockCourseRepo{deleteErr: sql.ErrNoRows}, nil, nil, nil)
	err := svc.Delete(context.Background(), "missing")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
